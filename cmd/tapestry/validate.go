package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tapestry/internal/cli"
	"github.com/aretw0/tapestry/internal/validator"
	"github.com/aretw0/tapestry/pkg/bundle"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		worldID string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "validate [bundle]",
		Short: "Check a World for consistency",
		Long: `Reports dangling references, broken jumps, unreachable events, dead ends, ambiguous choices
and expressions that would fail. Checks a bundle file, or with --world the stored graph.
Exits non-zero when any error is found; warnings alone pass.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := validateTarget(cmd, rootOpts, args, worldID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
				return report.Err()
			}

			for _, issue := range report.Issues {
				fmt.Fprintln(out, issue.String())
			}
			if err := report.Err(); err != nil {
				return err
			}
			fmt.Fprintf(out, "World '%s' is valid (%d warnings).\n", report.WorldID, len(report.Warnings()))
			return nil
		},
	}

	cmd.Flags().StringVar(&worldID, "world", "", "Validate the stored graph of this World instead of a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func validateTarget(cmd *cobra.Command, rootOpts *RootOptions, args []string, worldID string) (*validator.Report, error) {
	if len(args) > 0 {
		doc, err := bundle.ReadFile(args[0])
		if err != nil {
			return nil, err
		}
		return validator.Validate(doc), nil
	}
	if worldID == "" {
		return nil, fmt.Errorf("pass a bundle file or --world")
	}

	ctx := cmd.Context()
	backend, err := cli.OpenBackend(ctx, rootOpts.Config)
	if err != nil {
		return nil, err
	}
	defer backend.Close()
	return validator.ValidateWorld(ctx, backend.Graph, worldID)
}
