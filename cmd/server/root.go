package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/collabhub-server/internal/app"
	"github.com/vovakirdan/collabhub-server/internal/config"
	"github.com/vovakirdan/collabhub-server/internal/log"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootFlags struct {
	configPath string
	addr       string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:           "collabhub-server",
		Short:         "Real-time collaborative editing and room presence server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, flags)
		},
	}

	rootCmd.Flags().StringVar(&flags.configPath, "config", "", "path to config.yaml (created with defaults if missing)")
	rootCmd.Flags().StringVar(&flags.addr, "addr", "", "HTTP listen address, overrides config")
	rootCmd.Flags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func runServer(cmd *cobra.Command, flags rootFlags) error {
	bootLogger := log.New(log.Options{Level: flags.logLevel})

	cfg, path, err := config.Load(bootLogger, flags.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(config.Config{Addr: flags.addr, LogLevel: flags.logLevel})

	logger := log.New(log.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info().Str("config", path).Str("version", version).Msg("starting collabhub server")

	ctx := cmd.Context()
	application, err := app.New(ctx, cfg, version, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}
