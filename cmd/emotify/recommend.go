package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedikaaneesh/emotify/internal/mood"
	"github.com/vedikaaneesh/emotify/internal/session"
	"github.com/vedikaaneesh/emotify/internal/weather"
)

var errNoWeatherService = errors.New("weather.api_key is not set; pass --weather instead")

type recommendOptions struct {
	emotion  string
	weather  string
	location string
}

func newRecommendCmd(a *app) *cobra.Command {
	var opts recommendOptions

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print a one-off recommendation",
		Example: `  emotify recommend --emotion happy --weather Sunny
  emotify recommend --emotion sad --location 48.85,2.35`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return a.recommend(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.emotion, "emotion", "e", "", "mood: "+emotionList())
	cmd.Flags().StringVarP(&opts.weather, "weather", "w", "", "weather description, e.g. Sunny")
	cmd.Flags().StringVarP(&opts.location, "location", "l", "", "look the weather up for lat,lon")
	_ = cmd.MarkFlagRequired("emotion")
	cmd.MarkFlagsOneRequired("weather", "location")
	cmd.MarkFlagsMutuallyExclusive("weather", "location")

	return cmd
}

func (a *app) recommend(cmd *cobra.Command, opts recommendOptions) error {
	ctx := cmd.Context()

	e, err := mood.ParseEmotion(opts.emotion)
	if err != nil {
		return err
	}

	condition := opts.weather
	if opts.location != "" {
		lat, lon, err := weather.ParseLocation(opts.location)
		if err != nil {
			return err
		}
		lookup := a.deps.weather(a.cfg)
		if lookup == nil {
			return errNoWeatherService
		}
		condition, err = lookup.Current(ctx, weather.Location(lat, lon))
		if err != nil {
			return fmt.Errorf("looking up weather: %w", err)
		}
	}

	searcher, err := a.deps.searcher(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("creating music searcher: %w", err)
	}

	ctrl := session.New(searcher,
		session.WithLogger(a.logger),
		session.WithSearchTimeout(a.cfg.Search.Timeout),
		session.WithSearchDefaults(a.cfg.Search.Locale, a.cfg.Search.Limit))
	ctrl.SetWeather(condition)

	view := ctrl.RequestRecommendations(ctx, e)
	if err := view.Status.Err(); err != nil {
		return fmt.Errorf("%s: %w", view.Notice, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderCard(view))
	return nil
}
