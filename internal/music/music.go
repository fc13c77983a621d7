// Package music defines the track search contract shared by the search
// providers and the recommendation flow.
package music

import (
	"context"
	"strings"

	"github.com/vedikaaneesh/emotify/internal/mood"
)

// Search defaults used when the caller does not configure them.
const (
	DefaultLocale = "en-US"
	DefaultLimit  = 20
)

// Track is a search result. Beyond ID it is display metadata only.
type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	CoverURL   string `json:"coverUrl,omitempty"`
	URL        string `json:"url,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

// SearchRequest is a term search against a music catalog.
type SearchRequest struct {
	Term   string
	Locale string
	Offset int
	Limit  int
}

// DefaultRequest returns a first-page request for term.
func DefaultRequest(term string) SearchRequest {
	return SearchRequest{
		Term:   term,
		Locale: DefaultLocale,
		Offset: 0,
		Limit:  DefaultLimit,
	}
}

// Searcher finds candidate tracks for a search term.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) ([]Track, error)
}

// Query builds the search term for a mood and a weather description,
// e.g. "Happy Sunny".
func Query(e mood.Emotion, weather string) string {
	return string(e) + " " + strings.TrimSpace(weather)
}
