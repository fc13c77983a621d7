package spotify

import "errors"

// ErrMissingCredentials is returned when the client ID or secret is not set.
var ErrMissingCredentials = errors.New("missing Spotify client ID or secret (SPOTIFY_ID, SPOTIFY_SECRET)")

// Config holds Spotify app credentials.
type Config struct {
	ClientID     string
	ClientSecret string
}

// Validate returns ErrMissingCredentials if either credential is empty.
func (c *Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}
