package wallhaven

// Item is one wallpaper returned by the search API. Path is the full-size image URL and is the
// item's identity.
type Item struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	ShortURL   string `json:"short_url"`
	FileType   string `json:"file_type"`
	Resolution string `json:"resolution"`
	Purity     string `json:"purity"`
	Category   string `json:"category"`
}

// Page is one page of search results.
type Page struct {
	Items      []Item
	TotalPages int
}

// searchResponse is the wire shape of a search response. Unknown fields are ignored.
type searchResponse struct {
	Data []Item `json:"data"`
	Meta struct {
		CurrentPage int `json:"current_page"`
		LastPage    int `json:"last_page"`
		PerPage     any `json:"per_page"`
		Total       int `json:"total"`
	} `json:"meta"`
}
