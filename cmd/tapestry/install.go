package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tapestry/internal/cli"
)

// NewInstallCommand creates the install command.
func NewInstallCommand(rootOpts *RootOptions) *cobra.Command {
	var fresh bool

	cmd := &cobra.Command{
		Use:   "install <bundle>",
		Short: "Install a World from a bundle file",
		Long: `Validates the bundle, stores its graph and seeds the playthrough log with the INITIAL entry.
Installing a World that already has a playthrough only refreshes its graph, unless --fresh is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := cli.OpenBackend(ctx, rootOpts.Config)
			if err != nil {
				return err
			}
			defer backend.Close()

			engine := cli.NewEngine(backend, rootOpts.Config, rootOpts.Logger)
			doc, err := cli.InstallFile(ctx, backend, engine, args[0], fresh)
			if err != nil {
				return err
			}
			state, err := engine.Resume(ctx, doc.World.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed world '%s' at '%s'.\n", doc.World.ID, state.Entry.Destination)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "Discard the existing playthrough")
	return cmd
}
