package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tapestry/internal/cli"
	"github.com/aretw0/tapestry/pkg/runner"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		worldID string
		limit   int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the playthrough log of a World, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if worldID == "" {
				return fmt.Errorf("--world is required")
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			ctx := cmd.Context()
			backend, err := cli.OpenBackend(ctx, rootOpts.Config)
			if err != nil {
				return err
			}
			defer backend.Close()

			engine := cli.NewEngine(backend, rootOpts.Config, rootOpts.Logger)
			entries, err := engine.History(ctx, worldID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			fmt.Fprintln(out, runner.FormatHistory(entries))
			return nil
		},
	}

	cmd.Flags().StringVar(&worldID, "world", "", "World to inspect")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum entries (defaults to the World's history limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}
