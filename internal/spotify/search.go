package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/vedikaaneesh/emotify/internal/music"
)

// maxSearchLimit is the largest page the search endpoint accepts.
const maxSearchLimit = 50

// Search finds tracks matching req.Term. The region of req.Locale, if any,
// is used as the market.
func (c *Client) Search(ctx context.Context, req music.SearchRequest) ([]music.Track, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = music.DefaultLimit
	}
	limit = min(limit, maxSearchLimit)

	opts := []spotify.RequestOption{spotify.Limit(limit), spotify.Offset(req.Offset)}
	if market := marketFor(req.Locale); market != "" {
		opts = append(opts, spotify.Market(market))
	}

	result, err := c.api.Search(ctx, req.Term, spotify.SearchTypeTrack, opts...)
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}

	if result.Tracks == nil {
		return []music.Track{}, nil
	}

	tracks := make([]music.Track, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		tracks = append(tracks, convertTrack(t))
	}
	return tracks, nil
}

// marketFor returns the country part of a locale like "en-US".
func marketFor(locale string) string {
	_, region, ok := strings.Cut(locale, "-")
	if !ok || len(region) != 2 {
		return ""
	}
	return strings.ToUpper(region)
}

// convertTrack converts a Spotify FullTrack to music.Track.
func convertTrack(t spotify.FullTrack) music.Track {
	// Join artist names
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	var cover string
	if len(t.Album.Images) > 0 {
		cover = t.Album.Images[0].URL
	}

	return music.Track{
		ID:         t.ID.String(),
		Title:      t.Name,
		Artist:     strings.Join(artists, ", "),
		CoverURL:   cover,
		URL:        t.ExternalURLs["spotify"],
		PreviewURL: t.PreviewURL,
	}
}

var _ music.Searcher = (*Client)(nil)
