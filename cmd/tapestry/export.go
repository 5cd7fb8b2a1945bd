package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tapestry/internal/cli"
	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var worldID string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the stored graph of a World to a bundle file",
		Long: `Writes every record reachable from the World, plus its settings, to a bundle file.
The format follows the extension: .yaml, .yml, .json, optionally with .gz.`,
		Args: cobra.ExactArgs(1),
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

			doc, err := bundle.Snapshot(ctx, backend.Graph, worldID)
			if err != nil {
				return err
			}
			settings, err := backend.Store.GetSettings(ctx, worldID)
			switch {
			case err == nil:
				if err := doc.SetSettings(*settings); err != nil {
					return err
				}
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}

			if err := bundle.WriteFile(args[0], doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported world '%s' to %s.\n", worldID, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&worldID, "world", "", "World to export")
	return cmd
}
