// Package config loads emotify settings from defaults, an optional TOML file
// and EMOTIFY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/vedikaaneesh/emotify/internal/detector"
	"github.com/vedikaaneesh/emotify/internal/music"
	"github.com/vedikaaneesh/emotify/internal/shazam"
	"github.com/vedikaaneesh/emotify/internal/spotify"
	"github.com/vedikaaneesh/emotify/internal/weather"
)

const (
	configName = "emotify"
	configType = "toml"
	envPrefix  = "EMOTIFY"
)

// Search providers.
const (
	ProviderShazam  = "shazam"
	ProviderSpotify = "spotify"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// face-api.js and the weights for its tiny face detector and expression net.
const (
	DefaultFaceAPIScript = "https://cdn.jsdelivr.net/npm/face-api.js@0.22.2/dist/face-api.min.js"
	DefaultFaceAPIModels = "https://cdn.jsdelivr.net/gh/justadudewhohacks/face-api.js@0.22.2/weights"
)

// ErrInvalidConfig is returned when a loaded value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Weather  WeatherConfig  `mapstructure:"weather"`
	Search   SearchConfig   `mapstructure:"search"`
	Shazam   ShazamConfig   `mapstructure:"shazam"`
	Spotify  SpotifyConfig  `mapstructure:"spotify"`
	Detector DetectorConfig `mapstructure:"detector"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr       string        `mapstructure:"addr"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`

	// Browser face detection. An empty script disables it and webcam frames
	// go to the detector service instead.
	FaceAPIScript string `mapstructure:"face_api_script"`
	FaceAPIModels string `mapstructure:"face_api_models"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// WeatherConfig configures the weather collaborator.
type WeatherConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// SearchConfig configures music search requests.
type SearchConfig struct {
	Provider string        `mapstructure:"provider"`
	Locale   string        `mapstructure:"locale"`
	Limit    int           `mapstructure:"limit"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ShazamConfig configures the RapidAPI Shazam client.
type ShazamConfig struct {
	Endpoint          string  `mapstructure:"endpoint"`
	Host              string  `mapstructure:"host"`
	APIKey            string  `mapstructure:"api_key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// SpotifyConfig holds Spotify app credentials.
type SpotifyConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// DetectorConfig configures the face-expression service.
type DetectorConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects where recommendation history is kept.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	DatabaseURL string `mapstructure:"database_url"`
	SQLitePath  string `mapstructure:"sqlite_path"`
}

// defaults lists every key with its default value. Keys missing here are
// not picked up from the environment.
var defaults = map[string]any{
	"server.addr":        "127.0.0.1:8080",
	"server.session_ttl": 24 * time.Hour,

	"server.face_api_script": DefaultFaceAPIScript,
	"server.face_api_models": DefaultFaceAPIModels,

	"log.level":       "info",
	"log.development": false,

	"weather.endpoint":  weather.DefaultEndpoint,
	"weather.api_key":   "",
	"weather.cache_ttl": weather.DefaultCacheTTL,

	"search.provider": ProviderShazam,
	"search.locale":   music.DefaultLocale,
	"search.limit":    music.DefaultLimit,
	"search.timeout":  15 * time.Second,

	"shazam.endpoint":            shazam.DefaultEndpoint,
	"shazam.host":                shazam.DefaultHost,
	"shazam.api_key":             "",
	"shazam.requests_per_second": shazam.DefaultRequestsPerSecond,

	"spotify.client_id":     "",
	"spotify.client_secret": "",

	"detector.endpoint": "",
	"detector.api_key":  "",
	"detector.timeout":  detector.DefaultTimeout,

	"storage.driver":       DriverMemory,
	"storage.database_url": "",
	"storage.sqlite_path":  "emotify.db",
}

// legacyEnv maps keys to the plain variable names the collaborator packages
// read, so existing environments keep working.
var legacyEnv = map[string]string{
	"weather.api_key":       "WEATHER_API_KEY",
	"shazam.api_key":        "RAPIDAPI_KEY",
	"spotify.client_id":     "SPOTIFY_ID",
	"spotify.client_secret": "SPOTIFY_SECRET",
	"detector.endpoint":     "DETECTOR_ENDPOINT",
	"storage.database_url":  "DATABASE_URL",
}

// Load reads configuration. An explicit path must exist; otherwise
// emotify.toml is looked up in the working directory and
// $XDG_CONFIG_HOME/emotify and a missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	if !slices.Contains([]string{ProviderShazam, ProviderSpotify}, c.Search.Provider) {
		return fmt.Errorf("%w: search.provider %q", ErrInvalidConfig, c.Search.Provider)
	}
	if !slices.Contains([]string{DriverMemory, DriverPostgres, DriverSQLite}, c.Storage.Driver) {
		return fmt.Errorf("%w: storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("%w: search.limit must be positive", ErrInvalidConfig)
	}
	if c.Storage.Driver == DriverPostgres && c.Storage.DatabaseURL == "" {
		return fmt.Errorf("%w: storage.database_url is required for postgres", ErrInvalidConfig)
	}
	return nil
}

// WeatherClientConfig returns the weather package configuration.
func (c *Config) WeatherClientConfig() *weather.Config {
	return &weather.Config{
		Endpoint: c.Weather.Endpoint,
		APIKey:   c.Weather.APIKey,
		CacheTTL: c.Weather.CacheTTL,
	}
}

// ShazamClientConfig returns the shazam package configuration.
func (c *Config) ShazamClientConfig() *shazam.Config {
	return &shazam.Config{
		Endpoint:          c.Shazam.Endpoint,
		Host:              c.Shazam.Host,
		APIKey:            c.Shazam.APIKey,
		RequestsPerSecond: c.Shazam.RequestsPerSecond,
	}
}

// SpotifyClientConfig returns the spotify package configuration.
func (c *Config) SpotifyClientConfig() *spotify.Config {
	return &spotify.Config{
		ClientID:     c.Spotify.ClientID,
		ClientSecret: c.Spotify.ClientSecret,
	}
}

// DetectorClientConfig returns the detector package configuration.
func (c *Config) DetectorClientConfig() *detector.Config {
	return &detector.Config{
		Endpoint: c.Detector.Endpoint,
		APIKey:   c.Detector.APIKey,
		Timeout:  c.Detector.Timeout,
	}
}

// DefaultTOML renders the defaults as a TOML document, grouped by section.
// Durations are written as strings such as "10m0s".
func DefaultTOML() ([]byte, error) {
	doc := make(map[string]map[string]any)
	for key, value := range defaults {
		section, name, _ := strings.Cut(key, ".")
		if doc[section] == nil {
			doc[section] = make(map[string]any)
		}
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		doc[section][name] = value
	}

	out, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return out, nil
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := DefaultTOML()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
