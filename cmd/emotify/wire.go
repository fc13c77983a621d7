package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/vedikaaneesh/emotify/internal/config"
	"github.com/vedikaaneesh/emotify/internal/db"
	"github.com/vedikaaneesh/emotify/internal/history"
	"github.com/vedikaaneesh/emotify/internal/music"
	"github.com/vedikaaneesh/emotify/internal/shazam"
	"github.com/vedikaaneesh/emotify/internal/spotify"
	"github.com/vedikaaneesh/emotify/internal/sqlite"
	"github.com/vedikaaneesh/emotify/internal/weather"
	"github.com/vedikaaneesh/emotify/internal/web"
)

// deps builds the external collaborators. Tests swap in fakes.
type deps struct {
	searcher func(ctx context.Context, cfg *config.Config) (music.Searcher, error)
	weather  func(cfg *config.Config) web.WeatherLookup
	history  func(ctx context.Context, cfg *config.Config) (history.Store, error)
}

func defaultDeps() deps {
	return deps{
		searcher: newSearcher,
		weather:  newWeather,
		history:  openHistory,
	}
}

func newSearcher(ctx context.Context, cfg *config.Config) (music.Searcher, error) {
	switch cfg.Search.Provider {
	case config.ProviderSpotify:
		sc := cfg.SpotifyClientConfig()
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		return spotify.NewFromConfig(ctx, sc), nil
	default:
		sc := cfg.ShazamClientConfig()
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		return shazam.NewClient(sc), nil
	}
}

// newWeather returns nil when no API key is configured; the server then
// reports every location lookup as failed.
func newWeather(cfg *config.Config) web.WeatherLookup {
	wc := cfg.WeatherClientConfig()
	if wc.Validate() != nil {
		return nil
	}
	return weather.NewClient(wc)
}

func openHistory(ctx context.Context, cfg *config.Config) (history.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		database, err := db.New(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx); err != nil {
			_ = database.Close()
			return nil, err
		}
		return database, nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return history.NewMemoryStore(), nil
	}
}

// bindFlag lets a flag override a config key when it is set.
func (a *app) bindFlag(key string, flag *pflag.Flag) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag for %s: %v", key, err))
	}
}
