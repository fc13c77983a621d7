// Package weather looks up the current weather condition for a location
// using the weatherapi.com current conditions API.
package weather

import (
	"errors"
	"time"
)

const (
	// DefaultEndpoint is the weatherapi.com current conditions endpoint.
	DefaultEndpoint = "https://api.weatherapi.com/v1/current.json"

	// DefaultCacheTTL is how long a location's condition is reused.
	DefaultCacheTTL = 10 * time.Minute
)

// ErrMissingAPIKey is returned when no weatherapi.com key is configured.
var ErrMissingAPIKey = errors.New("missing weather API key (WEATHER_API_KEY)")

// Config holds weather API configuration.
type Config struct {
	Endpoint string
	APIKey   string
	CacheTTL time.Duration
}

// Validate returns ErrMissingAPIKey if no API key is set.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
