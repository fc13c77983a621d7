package shazam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vedikaaneesh/emotify/internal/music"
)

// Sentinel errors.
var (
	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnauthorized is returned when RapidAPI rejects the key.
	ErrUnauthorized = errors.New("unauthorized")

	errServer = errors.New("shazam unavailable")
)

// Client is a RapidAPI Shazam client. It implements music.Searcher.
type Client struct {
	apiKey      string
	host        string
	endpoint    string
	httpClient  *http.Client
	limiter     *rate.Limiter
	retryDelays []time.Duration
}

// NewClient creates a new Shazam client from the provided configuration.
func NewClient(cfg *Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		apiKey:   cfg.APIKey,
		host:     host,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:     newLimiter(cfg.RequestsPerSecond),
		retryDelays: []time.Duration{500 * time.Millisecond, 1 * time.Second, 2 * time.Second},
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Search queries Shazam for tracks matching req.Term. An empty result is
// returned as an empty slice, not an error.
func (c *Client) Search(ctx context.Context, req music.SearchRequest) ([]music.Track, error) {
	locale := req.Locale
	if locale == "" {
		locale = music.DefaultLocale
	}
	limit := req.Limit
	if limit <= 0 {
		limit = music.DefaultLimit
	}

	params := url.Values{
		"term":   {req.Term},
		"locale": {locale},
		"offset": {strconv.Itoa(req.Offset)},
		"limit":  {strconv.Itoa(limit)},
	}

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	if resp.Tracks == nil {
		return []music.Track{}, nil
	}

	tracks := make([]music.Track, 0, len(resp.Tracks.Hits))
	for _, h := range resp.Tracks.Hits {
		tracks = append(tracks, convertTrack(h.Track))
	}
	return tracks, nil
}

// convertTrack maps a Shazam track to the domain type.
func convertTrack(t track) music.Track {
	cover := t.Images.CoverArt
	if cover == "" {
		cover = t.Images.CoverArtHQ
	}

	var preview string
	for _, a := range t.Hub.Actions {
		if a.Type == "uri" && strings.HasPrefix(a.URI, "http") {
			preview = a.URI
			break
		}
	}

	return music.Track{
		ID:         t.Key,
		Title:      t.Title,
		Artist:     t.Subtitle,
		CoverURL:   cover,
		URL:        t.URL,
		PreviewURL: preview,
	}
}

// doRequest performs an HTTP GET request, retrying on rate limits and server
// errors. Every attempt waits on the client's rate limiter first.
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelays[attempt-1]):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, ErrRateLimited) || errors.Is(err, errServer) {
			lastErr = err
			continue
		}

		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("x-rapidapi-host", c.host)
	req.Header.Set("x-rapidapi-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: status %d", errServer, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}

var _ music.Searcher = (*Client)(nil)
