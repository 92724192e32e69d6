// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"fmt"

	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show indexing status",
		Long:  "Check the running server's index status endpoint and display embedding progress.",
		RunE:  runStatus,
	}

	cmd.Flags().String("address", defaultServerAddr, "server address")

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	client := newAPIClient(addr)
	var body struct {
		Total     int     `json:"total"`
		Embedded  int     `json:"embedded"`
		Remaining int     `json:"remaining"`
		Percent   float64 `json:"percent"`
	}
	if err := client.getJSON("/api/v1/index/status", &body); err != nil {
		if curioerr.HasCode(err, curioerr.CodeCLIServerNotRunning) {
			_, _ = fmt.Fprintf(out, "Curio server at %s is not running (connection refused)\n", addr)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Curio server at %s: %s\n", addr, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Objects: %d total, %d embedded, %d pending (%.1f%% done)\n",
		body.Total, body.Embedded, body.Remaining, body.Percent)

	// Provider availability is best effort; skip it when the server does
	// not report an embedding block.
	var healthBody struct {
		Embedding *struct {
			Provider string `json:"provider"`
			Model    string `json:"model"`
			Upstream struct {
				Available    bool  `json:"available"`
				FailureCount int64 `json:"failure_count"`
			} `json:"upstream"`
		} `json:"embedding"`
	}
	if err := client.getJSON("/health", &healthBody); err == nil && healthBody.Embedding != nil {
		emb := healthBody.Embedding
		state := "available"
		if !emb.Upstream.Available {
			state = fmt.Sprintf("cooling down after %d failures", emb.Upstream.FailureCount)
		}
		_, _ = fmt.Fprintf(out, "Provider: %s (%s), %s\n", emb.Provider, emb.Model, state)
	}
	return nil
}
