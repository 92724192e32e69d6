// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package main

import (
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"

	curioerr "github.com/curio-dev/curio/pkg/errors"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Rank objects by similarity to a query",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().IntP("k", "k", 0, "result count (0 uses the server's default)")
	cmd.Flags().String("dataset", "", "restrict to one dataset")
	cmd.Flags().Bool("images-only", false, "restrict to objects with images")
	cmd.Flags().String("address", defaultServerAddr, "server address")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	k, _ := cmd.Flags().GetInt("k")
	dataset, _ := cmd.Flags().GetString("dataset")
	imagesOnly, _ := cmd.Flags().GetBool("images-only")
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	params := url.Values{}
	params.Set("q", args[0])
	if k > 0 {
		params.Set("k", strconv.Itoa(k))
	}
	if dataset != "" {
		params.Set("dataset_id", dataset)
	}
	if imagesOnly {
		params.Set("images_only", "true")
	}

	client := newAPIClient(addr)
	var body struct {
		Query   string `json:"query"`
		Results []struct {
			Score  float32 `json:"score"`
			Object struct {
				UID     string `json:"uid"`
				Title   string `json:"title"`
				Creator string `json:"creator"`
			} `json:"object"`
		} `json:"results"`
		Count int `json:"count"`
	}
	if err := client.getJSON("/api/v1/search?"+params.Encode(), &body); err != nil {
		if curioerr.HasCode(err, curioerr.CodeCLIServerNotRunning) {
			_, _ = fmt.Fprintf(out, "Curio server at %s is not running (connection refused)\n", addr)
			return nil
		}
		return curioerr.Errorf(curioerr.CodeCLIRequestFailure, "searching: %w", err)
	}

	if len(body.Results) == 0 {
		_, _ = fmt.Fprintln(out, "No results found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SCORE\tUID\tTITLE\tCREATOR")
	for _, r := range body.Results {
		_, _ = fmt.Fprintf(tw, "%.4f\t%s\t%s\t%s\n", r.Score, r.Object.UID, r.Object.Title, r.Object.Creator)
	}
	return tw.Flush()
}
