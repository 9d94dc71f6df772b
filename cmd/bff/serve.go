package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-bff/internal/app"
	"github.com/yungbote/neurobridge-bff/internal/config"
	"github.com/yungbote/neurobridge-bff/internal/platform/shutdown"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the BFF HTTP server until SIGINT/SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Tracing.Version == "" {
				cfg.Tracing.Version = Version
			}

			ctx, stop := shutdown.NotifyContext(cmd.Context())
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			defer a.Close()

			a.Log.Info("starting", "profile", cfg.Profile, "addr", cfg.HTTP.Addr, "cache", cfg.Cache.URL)
			return a.Run(ctx)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	profile, _ := cmd.Flags().GetString("profile")
	return config.Load(path, profile)
}
