// Package shazam searches the Shazam catalogue through RapidAPI.
package shazam

import (
	"errors"
	"fmt"
)

const (
	// DefaultEndpoint is the RapidAPI Shazam search endpoint.
	DefaultEndpoint = "https://shazam.p.rapidapi.com/search"

	// DefaultHost is sent as x-rapidapi-host.
	DefaultHost = "shazam.p.rapidapi.com"

	// DefaultRequestsPerSecond keeps the client under the free plan's quota.
	DefaultRequestsPerSecond = 5.0
)

// ErrMissingAPIKey is returned when no RapidAPI key is configured.
var ErrMissingAPIKey = errors.New("missing RapidAPI key (RAPIDAPI_KEY)")

// Config holds Shazam API configuration.
type Config struct {
	Endpoint string
	Host     string
	APIKey   string

	// RequestsPerSecond limits outgoing requests. Zero disables the limit.
	RequestsPerSecond float64
}

// Validate returns ErrMissingAPIKey if no API key is set, and rejects a
// negative rate limit.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative, got %v", c.RequestsPerSecond)
	}
	return nil
}
