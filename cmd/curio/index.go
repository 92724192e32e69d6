// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"fmt"

	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed pending objects",
		Long:  "Trigger embedding batches on a running server. Runs a single batch by default; --all keeps going until every object is embedded.",
		RunE:  runIndex,
	}

	cmd.Flags().Int("batch-size", 0, "objects per batch (0 uses the server's default)")
	cmd.Flags().Bool("all", false, "keep processing batches until done")
	cmd.Flags().String("address", defaultServerAddr, "server address")

	return cmd
}

func runIndex(cmd *cobra.Command, _ []string) error {
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	all, _ := cmd.Flags().GetBool("all")
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	client := newAPIClient(addr)
	payload := struct {
		BatchSize int `json:"batch_size,omitempty"`
	}{BatchSize: batchSize}

	for {
		var res struct {
			EmbeddedThisBatch int  `json:"embedded_this_batch"`
			Remaining         int  `json:"remaining"`
			Total             int  `json:"total"`
			Done              bool `json:"done"`
		}
		if err := client.postJSON("/api/v1/index/batches", payload, &res); err != nil {
			if curioerr.HasCode(err, curioerr.CodeCLIServerNotRunning) {
				_, _ = fmt.Fprintf(out, "Curio server at %s is not running (connection refused)\n", addr)
				return nil
			}
			return curioerr.Errorf(curioerr.CodeCLIRequestFailure, "processing batch: %w", err)
		}

		_, _ = fmt.Fprintf(out, "Embedded %d objects (%d/%d, %d remaining)\n",
			res.EmbeddedThisBatch, res.Total-res.Remaining, res.Total, res.Remaining)

		if res.Done {
			_, _ = fmt.Fprintln(out, "All objects embedded")
			return nil
		}
		if !all {
			return nil
		}
		// Skipped objects stay at the head of the pending queue, so a batch
		// that embeds nothing will never make progress again.
		if res.EmbeddedThisBatch == 0 {
			return curioerr.Errorf(curioerr.CodeCLIRequestFailure,
				"indexing stalled: %d objects remain but the last batch embedded none", res.Remaining)
		}
	}
}
