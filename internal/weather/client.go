package weather

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
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	userAgent = "emotify/1.0"

	defaultFetchTimeout = 30 * time.Second
)

// weatherapi.com error codes.
const (
	errCodeMissingKey      = 1002
	errCodeMissingQuery    = 1003
	errCodeLocationUnknown = 1006
	errCodeInvalidKey      = 2006
	errCodeQuotaExceeded   = 2007
	errCodeKeyDisabled     = 2008
)

// Sentinel errors.
var (
	// ErrInvalidAPIKey is returned when the API rejects the key.
	ErrInvalidAPIKey = errors.New("invalid weather API key")

	// ErrLocationNotFound is returned when the API cannot resolve the location.
	ErrLocationNotFound = errors.New("location not found")

	// ErrRateLimited is returned when the quota is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidLocation is returned for a malformed "lat,lon" string.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrNoCondition is returned when the response carries no condition text.
	ErrNoCondition = errors.New("no weather condition in response")

	errServer = errors.New("weather service unavailable")
)

// Client is a weatherapi.com client with caching and retry.
type Client struct {
	apiKey      string
	endpoint    string
	httpClient  *http.Client
	ttl         time.Duration
	retryDelays []time.Duration
	// fetchTimeout bounds one shared lookup, retries included.
	fetchTimeout time.Duration
	now          func() time.Time

	group singleflight.Group

	// key = normalized location
	cache   map[string]cacheEntry
	cacheMu sync.RWMutex
}

type cacheEntry struct {
	report  Report
	expires time.Time
}

// NewClient creates a new weather client from the provided configuration.
func NewClient(cfg *Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		ttl:          cfg.CacheTTL,
		retryDelays:  []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		fetchTimeout: defaultFetchTimeout,
		now:          time.Now,
		cache:        make(map[string]cacheEntry),
	}
}

// Current returns the current condition text (e.g. "Partly cloudy") for a
// location such as "48.85,2.35" or a place name.
func (c *Client) Current(ctx context.Context, location string) (string, error) {
	report, err := c.Lookup(ctx, location)
	if err != nil {
		return "", err
	}
	return report.Condition, nil
}

// Lookup returns the full current conditions report for a location.
// Concurrent lookups of one location share a single request.
func (c *Client) Lookup(ctx context.Context, location string) (Report, error) {
	key := strings.ToLower(strings.TrimSpace(location))
	if key == "" {
		return Report{}, ErrInvalidLocation
	}

	if report, ok := c.cached(key); ok {
		return report, nil
	}

	// The shared fetch outlives any single caller; each caller stops waiting
	// when its own context ends.
	ch := c.group.DoChan(key, func() (any, error) {
		if report, ok := c.cached(key); ok {
			return report, nil
		}

		fetchCtx := context.WithoutCancel(ctx)
		if c.fetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.fetchTimeout)
			defer cancel()
		}

		report, err := c.fetch(fetchCtx, key)
		if err != nil {
			return Report{}, err
		}
		c.store(key, report)
		return report, nil
	})

	select {
	case <-ctx.Done():
		return Report{}, fmt.Errorf("fetching current weather: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Report{}, fmt.Errorf("fetching current weather: %w", res.Err)
		}
		return res.Val.(Report), nil
	}
}

func (c *Client) cached(key string) (Report, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || (c.ttl > 0 && c.now().After(entry.expires)) {
		return Report{}, false
	}
	return entry.report, true
}

func (c *Client) store(key string, report Report) {
	if c.ttl <= 0 {
		return
	}
	c.cacheMu.Lock()
	c.cache[key] = cacheEntry{report: report, expires: c.now().Add(c.ttl)}
	c.cacheMu.Unlock()
}

func (c *Client) fetch(ctx context.Context, location string) (Report, error) {
	params := url.Values{
		"key": {c.apiKey},
		"q":   {location},
		"aqi": {"no"},
	}

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return Report{}, err
	}

	var resp currentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Report{}, fmt.Errorf("parsing current weather response: %w", err)
	}

	condition := strings.TrimSpace(resp.Current.Condition.Text)
	if condition == "" {
		return Report{}, ErrNoCondition
	}

	return Report{
		Condition: condition,
		Place:     resp.Location.Name,
		TempC:     resp.Current.TempC,
	}, nil
}

// doRequest performs an HTTP GET request, retrying on rate limits and server
// errors with the client's backoff delays. A Retry-After header overrides the
// next delay but never waits longer than the largest backoff delay.
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.endpoint + "?" + params.Encode()

	var lastErr error
	var wait time.Duration

	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		if attempt > 0 {
			if wait <= 0 {
				wait = c.retryDelays[attempt-1]
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		body, retryAfter, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, ErrRateLimited) || errors.Is(err, errServer) {
			lastErr = err
			wait = min(retryAfter, c.maxRetryDelay())
			continue
		}

		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, parseRetryAfter(resp), ErrRateLimited
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, parseRetryAfter(resp), fmt.Errorf("%w: status %d", errServer, resp.StatusCode)
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != nil {
		switch apiErr.Error.Code {
		case errCodeMissingKey, errCodeInvalidKey, errCodeKeyDisabled:
			return nil, 0, ErrInvalidAPIKey
		case errCodeLocationUnknown, errCodeMissingQuery:
			return nil, 0, ErrLocationNotFound
		case errCodeQuotaExceeded:
			return nil, 0, ErrRateLimited
		default:
			return nil, 0, fmt.Errorf("API error %d: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, 0, nil
}

func (c *Client) maxRetryDelay() time.Duration {
	var longest time.Duration
	for _, d := range c.retryDelays {
		longest = max(longest, d)
	}
	return longest
}

func parseRetryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(raw); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

// Location formats coordinates the way the API expects them.
func Location(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

// ParseLocation parses a "lat,lon" string and validates the ranges.
func ParseLocation(s string) (lat, lon float64, err error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude: %v", ErrInvalidLocation, err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude: %v", ErrInvalidLocation, err)
	}

	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("%w: %q out of range", ErrInvalidLocation, s)
	}
	return lat, lon, nil
}
