package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tapestry/internal/cli"
	"github.com/aretw0/tapestry/internal/presentation/graph"
	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		worldID string
		overlay bool
	)

	cmd := &cobra.Command{
		Use:   "graph [bundle]",
		Short: "Export the World graph visualization",
		Long: `Outputs a Mermaid diagram (graph TD) of a bundle file, or with --world of the stored graph.
With --overlay, the events of the visible playthrough are highlighted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 && worldID == "" {
				return fmt.Errorf("pass a bundle file or --world")
			}
			if len(args) > 0 && !overlay {
				doc, err := bundle.ReadFile(args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(doc, nil))
				return nil
			}

			backend, err := cli.OpenBackend(ctx, rootOpts.Config)
			if err != nil {
				return err
			}
			defer backend.Close()

			var doc *bundle.Bundle
			if len(args) > 0 {
				doc, err = bundle.ReadFile(args[0])
			} else {
				doc, err = bundle.Snapshot(ctx, backend.Graph, worldID)
			}
			if err != nil {
				return err
			}

			var marks *graph.GraphOverlay
			if overlay {
				engine := cli.NewEngine(backend, rootOpts.Config, rootOpts.Logger)
				entries, err := engine.History(ctx, doc.World.ID, 0)
				if err != nil && !errors.Is(err, domain.ErrNotInstalled) {
					return err
				}
				marks = &graph.GraphOverlay{}
				for i := len(entries) - 1; i >= 0; i-- {
					marks.VisitedNodes = append(marks.VisitedNodes, entries[i].Destination)
				}
				if len(entries) > 0 {
					marks.CurrentNode = entries[0].Destination
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(doc, marks))
			return nil
		},
	}

	cmd.Flags().StringVar(&worldID, "world", "", "Draw the stored graph of this World")
	cmd.Flags().BoolVar(&overlay, "overlay", false, "Highlight visited and current events")
	return cmd
}
