// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/curio-dev/curio/internal/config"
	"github.com/curio-dev/curio/internal/secrets"
	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the curio server",
		Long:  "Load configuration, open the catalog store, and start the HTTP server.",
		RunE:  runStart,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runStart(cmd *cobra.Command, _ []string) error {
	// Resolve keyring:// config references before unmarshalling. Failing
	// here beats handing an unresolved URI to a provider client later.
	if err := secrets.ResolveViperSecrets(viper.GetViper(), secretStoreFactory()); err != nil {
		return curioerr.Wrapf(err, curioerr.CodeCLISetupFailure, "resolving secrets")
	}

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return curioerr.Wrapf(err, curioerr.CodeCLISetupFailure, "loading config")
	}

	setupLogging(cfg.Logging, viper.GetBool("verbose"))
	config.WarnInsecurePermissions(viper.ConfigFileUsed())

	app, err := WireApp(cfg)
	if err != nil {
		return curioerr.Wrapf(err, curioerr.CodeCLISetupFailure, "wiring subsystems")
	}
	defer func() { _ = app.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Curio listening on %s\n", cfg.Server.Listen); err != nil {
		return err
	}

	return app.Start(ctx)
}

// setupLogging installs the process-wide logger. Verbose forces debug
// regardless of the configured level.
func setupLogging(cfg config.LoggingConfig, verbose bool) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
