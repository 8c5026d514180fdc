package wallhaven

import (
	"math/rand/v2"

	"github.com/dixieflatline76/rngpaper/pkg/settings"
)

// Query is the base search query of one change operation. The tag stays fixed while pages
// are fetched.
type Query struct {
	Tag        string `url:"q"`
	Categories string `url:"categories"`
	Purity     string `url:"purity"`
	APIKey     string `url:"apikey,omitempty"`
}

// searchParams is a Query plus the optional page number.
type searchParams struct {
	Query
	Page int `url:"page,omitempty"`
}

// NewQuery builds a query from a uniformly random collection tag of the snapshot.
func NewQuery(snap settings.Snapshot) Query {
	return NewQueryWith(snap, rand.IntN)
}

// NewQueryWith is NewQuery with an injectable random source. intn must return a value in [0, n).
func NewQueryWith(snap settings.Snapshot, intn func(n int) int) Query {
	var tag string
	if n := len(snap.Collections); n > 0 {
		tag = snap.Collections[intn(n)]
	}
	return Query{
		Tag:        tag,
		Categories: snap.Categories.String(),
		Purity:     snap.Purity.String(),
		APIKey:     snap.APIKey,
	}
}

// String returns the query without the API key, for logging.
func (q Query) String() string {
	return "q=" + q.Tag + " categories=" + q.Categories + " purity=" + q.Purity
}
