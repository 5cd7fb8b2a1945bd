package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tapestry/internal/cli"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		worldID string
		hard    bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Start a World over",
		Long: `Appends a restart entry so play resumes from the initial state; earlier entries stay in the log.
With --hard, the whole playthrough (log, bookmark, settings) is deleted and the World must be installed again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if worldID == "" {
				return fmt.Errorf("--world is required")
			}
			ctx := cmd.Context()
			backend, err := cli.OpenBackend(ctx, rootOpts.Config)
			if err != nil {
				return err
			}
			defer backend.Close()

			engine := cli.NewEngine(backend, rootOpts.Config, rootOpts.Logger)
			out := cmd.OutOrStdout()
			if hard {
				if err := engine.Uninstall(ctx, worldID); err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed the playthrough of '%s'.\n", worldID)
				return nil
			}

			state, err := engine.Restart(ctx, worldID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Restarted '%s' at '%s'.\n", worldID, state.Entry.Destination)
			return nil
		},
	}

	cmd.Flags().StringVar(&worldID, "world", "", "World to reset")
	cmd.Flags().BoolVar(&hard, "hard", false, "Delete the playthrough instead of restarting")
	return cmd
}
