package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vedikaaneesh/emotify/internal/detector"
	"github.com/vedikaaneesh/emotify/internal/session"
	"github.com/vedikaaneesh/emotify/internal/web"
	webfs "github.com/vedikaaneesh/emotify/web"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			return a.serve(cmd)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8080)")
	a.bindFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func (a *app) serve(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := a.cfg

	searcher, err := a.deps.searcher(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating music searcher: %w", err)
	}

	store, err := a.deps.history(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer store.Close()

	det := detector.NewClient(cfg.DetectorClientConfig())
	if !det.Ready() {
		a.logger.Info("no detector endpoint configured; webcam detection runs in the browser only")
	}

	lookup := a.deps.weather(cfg)
	if lookup == nil {
		a.logger.Warn("no weather API key configured; recommendations need weather")
	}

	templates, static, err := webfs.Assets()
	if err != nil {
		return err
	}

	sessionLogger := a.logger.Named("session")
	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Server.Addr,
		TemplatesFS: templates,
		StaticFS:    static,
		SessionTTL:  cfg.Server.SessionTTL,
		NewController: func(id string) *session.Controller {
			return session.New(searcher,
				session.WithID(id),
				session.WithDetector(det),
				session.WithRecorder(store),
				session.WithLogger(sessionLogger),
				session.WithSearchTimeout(cfg.Search.Timeout),
				session.WithSearchDefaults(cfg.Search.Locale, cfg.Search.Limit))
		},
		Weather: lookup,
		History: store,
		FaceAPI: web.FaceAPI{
			ScriptURL: cfg.Server.FaceAPIScript,
			ModelsURL: cfg.Server.FaceAPIModels,
		},
		Logger: a.logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	a.logger.Info("serving",
		zap.String("provider", cfg.Search.Provider),
		zap.String("storage", cfg.Storage.Driver))
	return server.Run(ctx)
}
