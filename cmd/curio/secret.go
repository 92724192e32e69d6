// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/curio-dev/curio/internal/secrets"
	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/spf13/cobra"
)

// secretStoreFactory creates a secrets.Store. It is a package-level variable
// so tests can substitute a mock implementation.
var secretStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage secrets stored in the OS keyring",
		Long: "Store, list and delete secrets kept under the curio service in the operating\n" +
			"system keyring. Reference a stored secret from the config file as\n" +
			"keyring://curio/<name>, e.g. api_key: keyring://curio/embedding-api-key.",
	}

	cmd.AddCommand(
		newSecretSetCmd(),
		newSecretListCmd(),
		newSecretDeleteCmd(),
	)

	return cmd
}

func newSecretSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Store a secret read from standard input",
		Long:  "Read a secret value from standard input and store it under <name>. Pipe the value in, or type it and press enter.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretSet,
	}
}

func newSecretListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored secret names",
		RunE:  runSecretList,
	}
}

func newSecretDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret by name",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretDelete,
	}
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	name := args[0]

	// Values come in on stdin so they stay out of shell history and
	// process listings.
	scanner := bufio.NewScanner(cmd.InOrStdin())
	var value string
	if scanner.Scan() {
		value = strings.TrimSpace(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return curioerr.Errorf(curioerr.CodeCLIInputInvalid, "reading secret value: %w", err)
	}
	if value == "" {
		return curioerr.New(curioerr.CodeCLIInputInvalid, "secret value must not be empty")
	}

	store := secretStoreFactory()
	if err := store.Store(secrets.Service, name, value); err != nil {
		return curioerr.Wrapf(err, curioerr.CodeSecretStoreFailure, "storing secret %q", name)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Stored secret: %s\n", name)
	_, _ = fmt.Fprintf(out, "Reference it from config as keyring://%s/%s\n", secrets.Service, name)
	return nil
}

func runSecretList(cmd *cobra.Command, _ []string) error {
	store := secretStoreFactory()
	keys, err := store.List(secrets.Service)
	if err != nil {
		return curioerr.Wrapf(err, curioerr.CodeSecretListFailure, "listing secrets")
	}

	out := cmd.OutOrStdout()
	if len(keys) == 0 {
		_, _ = fmt.Fprintln(out, "No secrets stored.")
		return nil
	}

	for _, k := range keys {
		_, _ = fmt.Fprintln(out, k)
	}
	return nil
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	store := secretStoreFactory()

	if err := store.Delete(secrets.Service, name); err != nil {
		if curioerr.HasCode(err, curioerr.CodeSecretNotFound) {
			return curioerr.Errorf(curioerr.CodeSecretNotFound, "secret %q not found", name)
		}
		return curioerr.Wrapf(err, curioerr.CodeSecretDeleteFailure, "deleting secret %q", name)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted secret: %s\n", name)
	return nil
}
