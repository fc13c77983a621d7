package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vedikaaneesh/emotify/internal/config"
	"github.com/vedikaaneesh/emotify/internal/logging"
)

// app carries what subcommands share. Configuration and the logger are
// loaded on first use so that commands like "config init" work without a
// valid config.
type app struct {
	deps       deps
	v          *viper.Viper
	configPath string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(d deps) *cobra.Command {
	a := &app{deps: d, v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "emotify",
		Short:         "Music recommendations for your mood and the weather",
		Long:          "emotify reads your mood (picked, or detected from your webcam) and the local weather, then recommends a few matching songs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: ./emotify.toml, then the user config dir)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.Bool("dev", false, "human-readable development logging")
	flags.String("provider", "", "music search provider: shazam or spotify")
	a.bindFlag("log.level", flags.Lookup("log-level"))
	a.bindFlag("log.development", flags.Lookup("dev"))
	a.bindFlag("search.provider", flags.Lookup("provider"))

	rootCmd.AddCommand(
		newServeCmd(a),
		newRecommendCmd(a),
		newEmotionsCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// setup loads configuration and builds the logger.
func (a *app) setup() error {
	if a.cfg != nil {
		return nil
	}

	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}
