// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"errors"

	"github.com/curio-dev/curio/internal/config"
	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCmd creates the root curio command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "curio",
		Short:         "Curio - semantic search over museum collections",
		Long:          "Curio ingests museum collection exports, embeds them with a text embedding model, and serves similarity search over the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	// Global flags. These map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	// Register subcommands
	root.AddCommand(
		newStartCmd(),
		newIngestCmd(),
		newIndexCmd(),
		newSearchCmd(),
		newDatasetsCmd(),
		newStatusCmd(),
		newSecretCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return curioerr.Errorf(curioerr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// Auto-discover curio.yaml from standard locations.
		// Note: SetConfigType is intentionally omitted. When set, Viper
		// falls back to trying the bare config name without extension,
		// which collides with the ./curio binary in the project root.
		v.SetConfigName("curio")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/curio")
		v.AddConfigPath("/etc/curio")
		// No config file is fine; defaults and env vars still apply.
		// Parse or permission errors must surface.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return curioerr.Errorf(curioerr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
			// No config found anywhere, so bootstrap a default to ~/.config/curio/.
			if path := config.BootstrapConfig(); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return curioerr.Errorf(curioerr.CodeConfigLoadReadFailure, "reading bootstrapped config: %w", err)
				}
			}
		}
	}

	// Bind persistent flags to viper keys.
	if err := v.BindPFlag("storage.data_dir", cmd.Root().PersistentFlags().Lookup("data-dir")); err != nil {
		return curioerr.Errorf(curioerr.CodeCLISetupFailure, "binding data-dir flag: %w", err)
	}
	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return curioerr.Errorf(curioerr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	return nil
}
