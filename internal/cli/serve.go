package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ultimate-tictactoe/internal/server"
)

func newServeCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the game over SSH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), f)
		},
	}
}

func runServe(ctx context.Context, f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openDirectory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := server.New(server.Options{
		Config:    cfg,
		Directory: store,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	logger.Info("Game server configured", "host", cfg.SSH.Host, "port", cfg.SSH.Port, "server", cfg.Server)
	return srv.ListenAndServe(ctx)
}
