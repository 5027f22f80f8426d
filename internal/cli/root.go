// Package cli wires configuration, logging and storage into the uttt
// commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"ultimate-tictactoe/internal/config"
	"ultimate-tictactoe/internal/directory"
)

type flags struct {
	configPath string
	server     string
	logLevel   string
}

// NewRootCommand builds `uttt`. Without a subcommand it runs play.
func NewRootCommand() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "uttt [match-id]",
		Short:         "Ultimate tic-tac-toe in the terminal",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), f, args)
		},
	}
	root.PersistentFlags().StringVarP(&f.configPath, "config", "c", "config.yml", "Config file (env and .env are used when missing)")
	root.PersistentFlags().StringVar(&f.server, "server", "", "Game server base URL (overrides config)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(newPlayCommand(f))
	root.AddCommand(newServeCommand(f))
	return root
}

func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.server != "" {
		cfg.Server = f.server
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "uttt",
		Level:           lvl,
	}), nil
}

// openDirectory returns the configured listing store and a func that
// releases it.
func openDirectory(ctx context.Context, cfg *config.Config, logger *log.Logger) (directory.Store, func(), error) {
	switch cfg.Directory.Backend {
	case "firebase":
		store, err := directory.NewFirebaseStore(ctx, cfg.Directory.FirebaseURL, cfg.Directory.CredPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("firebase directory: %w", err)
		}
		return store, func() {}, nil
	case "redis":
		store, err := directory.NewRedisStore(ctx, cfg.Directory.Redis.Addr())
		if err != nil {
			return nil, nil, fmt.Errorf("redis directory: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("Closing redis directory", "err", err)
			}
		}, nil
	default:
		return directory.NewMemoryStore(), func() {}, nil
	}
}
