package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tapestry/internal/cli"
	"github.com/aretw0/tapestry/pkg/adapters/mcp"
)

// NewMCPCommand creates the mcp command.
func NewMCPCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		transport string
		addr      string
		baseURL   string
	)

	cmd := &cobra.Command{
		Use:   "mcp [bundle...]",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes the installed Worlds as MCP tools, so AI agents can play them.
Bundles given as arguments are installed first.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := rootOpts.Config
			logger := rootOpts.Logger

			backend, err := cli.OpenBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			engine := cli.NewEngine(backend, cfg, logger)
			for _, path := range args {
				if _, err := cli.InstallFile(ctx, backend, engine, path, false); err != nil {
					return err
				}
			}

			srv := mcp.NewServer(engine, mcp.WithGraph(backend.Graph), mcp.WithLogger(logger))
			switch transport {
			case "stdio":
				// Ensure logs don't corrupt JSON-RPC on Stdout
				log.SetOutput(os.Stderr)
				logger.Info("Starting Tapestry MCP server (stdio)")
				return srv.ServeStdio()
			case "sse":
				if baseURL == "" {
					baseURL = "http://localhost" + addr
				}
				return srv.ServeSSE(ctx, addr, baseURL)
			}
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	cmd.Flags().StringVar(&addr, "addr", ":8081", "Address to listen on (only for SSE)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public base URL of the SSE server (defaults to http://localhost<addr>)")
	return cmd
}
