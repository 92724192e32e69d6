// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"

	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Upload a CSV export as a new dataset",
		Long:  "Read a museum collection CSV export and upload it to a running Curio server.",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().String("name", "", "dataset display name (defaults to the file name)")
	cmd.Flags().String("source-type", "", "origin tag recorded on the dataset")
	cmd.Flags().String("address", defaultServerAddr, "server address")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	name, _ := cmd.Flags().GetString("name")
	sourceType, _ := cmd.Flags().GetString("source-type")
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	data, err := os.ReadFile(path)
	if err != nil {
		return curioerr.Errorf(curioerr.CodeCLIInputInvalid, "reading %s: %w", path, err)
	}

	payload := struct {
		Name       string `json:"name,omitempty"`
		SourceType string `json:"source_type,omitempty"`
		Filename   string `json:"filename"`
		Content    string `json:"content"`
	}{
		Name:       name,
		SourceType: sourceType,
		Filename:   filepath.Base(path),
		Content:    string(data),
	}

	client := newAPIClient(addr)
	var ds struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ObjectCount int    `json:"object_count"`
	}
	if err := client.postJSON("/api/v1/datasets", payload, &ds); err != nil {
		if curioerr.HasCode(err, curioerr.CodeCLIServerNotRunning) {
			_, _ = fmt.Fprintf(out, "Curio server at %s is not running (connection refused)\n", addr)
			return nil
		}
		return curioerr.Errorf(curioerr.CodeCLIRequestFailure, "uploading dataset: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Ingested %q as dataset %s (%d objects)\n", ds.Name, ds.ID, ds.ObjectCount)
	_, _ = fmt.Fprintln(out, "Run 'curio index --all' to embed the new objects")
	return nil
}
