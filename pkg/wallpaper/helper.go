package wallpaper

import (
	"net/url"
	"strings"
)

// FileNameFromURL derives the cache file name of a remote image: the last path segment of
// the URL, ignoring query and fragment. URLs without a usable segment map to FallbackFileName.
func FileNameFromURL(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	name := p[strings.LastIndex(p, "/")+1:]
	switch {
	case name == "", name == ".", name == "..":
		return FallbackFileName
	case strings.ContainsAny(name, `\:`), strings.ContainsRune(name, 0):
		return FallbackFileName
	}
	return name
}
