// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/spf13/cobra"
)

func newDatasetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List ingested datasets",
		RunE:  runDatasets,
	}

	cmd.Flags().String("address", defaultServerAddr, "server address")

	return cmd
}

func runDatasets(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	client := newAPIClient(addr)
	var body struct {
		Datasets []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			SourceType  string `json:"source_type"`
			ObjectCount int    `json:"object_count"`
		} `json:"datasets"`
	}
	if err := client.getJSON("/api/v1/datasets", &body); err != nil {
		if curioerr.HasCode(err, curioerr.CodeCLIServerNotRunning) {
			_, _ = fmt.Fprintf(out, "Curio server at %s is not running (connection refused)\n", addr)
			return nil
		}
		return curioerr.Errorf(curioerr.CodeCLIRequestFailure, "listing datasets: %w", err)
	}

	if len(body.Datasets) == 0 {
		_, _ = fmt.Fprintln(out, "No datasets found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tSOURCE\tOBJECTS")
	for _, ds := range body.Datasets {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", ds.ID, ds.Name, ds.SourceType, ds.ObjectCount)
	}
	return tw.Flush()
}
