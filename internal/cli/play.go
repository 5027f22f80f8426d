package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ultimate-tictactoe/internal/auth"
	"ultimate-tictactoe/internal/ui"
)

func newPlayCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "play [match-id]",
		Short: "Play on this terminal, optionally joining a match right away",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), f, args)
		},
	}
}

func runPlay(ctx context.Context, f *flags, args []string) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	// the TUI owns the terminal, so logs go to a file
	if dir := filepath.Dir(cfg.LogFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("unable to create log dir: %w", err)
		}
	}
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	defer logFile.Close()
	logger, err := newLogger(logFile, cfg.LogLevel)
	if err != nil {
		return err
	}

	store, closeStore, err := openDirectory(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var authSession *auth.Session
	if cfg.Auth.URL != "" {
		authSession = auth.NewSession(auth.NewClient(cfg.Auth.URL), auth.FileStore{Path: cfg.Auth.CredentialsPath}, logger)
	}

	var matchID string
	if len(args) == 1 {
		matchID = args[0]
	}

	m := ui.InitialModel(ui.Options{
		Server:    cfg.Server,
		SessionID: uuid.NewString(),
		Name:      os.Getenv("USER"),
		MatchID:   matchID,
		Auth:      authSession,
		Directory: store,
		Logger:    logger,
	})

	logger.Info("Starting", "server", cfg.Server, "directory", cfg.Directory.Backend)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := final.(ui.Model); ok && fm.Conn() != nil {
		fm.Conn().Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
