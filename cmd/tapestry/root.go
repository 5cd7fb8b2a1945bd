package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/tapestry/internal/config"
)

// RootOptions holds global flags and the configuration resolved from them.
type RootOptions struct {
	Store      string
	SQLitePath string
	RedisAddr  string
	LogLevel   string
	LogFormat  string

	Config config.Config
	Logger *slog.Logger
}

// NewRootCommand creates the root command for the tapestry CLI.
// Without a subcommand it plays, like 'tapestry play'.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tapestry",
		Short: "Tapestry is an interactive fiction runtime",
		Long: `Tapestry plays storyworlds: graphs of scenes, events, choices and conditional paths,
with every step recorded in a persistent playthrough log.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "Storage backend: memory, sqlite or redis (env TAPESTRY_STORE)")
	cmd.PersistentFlags().StringVar(&opts.SQLitePath, "db", "", "SQLite database path (env TAPESTRY_SQLITE_PATH)")
	cmd.PersistentFlags().StringVar(&opts.RedisAddr, "redis", "", "Redis address (env TAPESTRY_REDIS_ADDR)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn or error (env TAPESTRY_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "Log format: text or json (env TAPESTRY_LOG_FORMAT)")

	play := NewPlayCommand(opts)
	cmd.Flags().AddFlagSet(play.Flags())
	cmd.Args = play.Args
	cmd.RunE = play.RunE

	cmd.AddCommand(play)
	cmd.AddCommand(NewInstallCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewGraphCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMCPCommand(opts))
	cmd.AddCommand(NewVersionCommand())
	return cmd
}

// resolve loads the environment configuration and applies the flags the user set.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store = o.Store
	}
	if flags.Changed("db") {
		cfg.SQLitePath = o.SQLitePath
	}
	if flags.Changed("redis") {
		cfg.RedisAddr = o.RedisAddr
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.Config = cfg
	o.Logger = cfg.Logger()
	return nil
}
