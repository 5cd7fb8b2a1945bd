package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/tapestry/internal/cli"
)

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := cli.PlayOptions{}

	cmd := &cobra.Command{
		Use:   "play [bundle]",
		Short: "Play a World in the terminal",
		Long: `Plays an installed World from its bookmark. Given a bundle file, the bundle is
installed first (or, if its World is already installed, its graph is refreshed).

In the prompt, type a choice number or title, your answer to an input, or press Enter to
continue. Meta commands: :back, :restart, :history, :quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.BundlePath = args[0]
			}
			opts.In = cmd.InOrStdin()
			opts.Out = cmd.OutOrStdout()
			return cli.RunSession(cmd.Context(), rootOpts.Config, opts, rootOpts.Logger)
		},
	}

	cmd.Flags().StringVar(&opts.WorldID, "world", "", "World to play (defaults to the bundle's World)")
	cmd.Flags().BoolVar(&opts.Fresh, "fresh", false, "Start over from the initial state")
	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "Plain IO without banner or styling; follows lone passthroughs")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "JSON lines IO for programmatic clients")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Reload the bundle file on change, keeping the playthrough")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "Terminal style: auto, dark, light or notty (defaults to the World setting)")
	return cmd
}
