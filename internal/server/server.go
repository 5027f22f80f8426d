// Package server serves the game UI over SSH, one program per session.
package server

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"

	"ultimate-tictactoe/internal/auth"
	"ultimate-tictactoe/internal/config"
	"ultimate-tictactoe/internal/directory"
	"ultimate-tictactoe/internal/ui"
)

const ShutdownTimeout = 30 * time.Second

type Options struct {
	Config    *config.Config
	Directory directory.Store
	Logger    *log.Logger
	// Dial defaults to ui.DialWebsocket.
	Dial ui.DialFunc
}

type Server struct {
	srv    *ssh.Server
	opts   Options
	logger *log.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Directory == nil {
		opts.Directory = directory.NewMemoryStore()
	}
	if opts.Dial == nil {
		opts.Dial = ui.DialWebsocket
	}

	s := &Server{opts: opts, logger: opts.Logger}
	cfg := opts.Config.SSH
	srv, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		// any key is welcome; it only names the player
		wish.WithPublicKeyAuth(func(ssh.Context, ssh.PublicKey) bool { return true }),
		wish.WithKeyboardInteractiveAuth(func(ssh.Context, gossh.KeyboardInteractiveChallenge) bool { return true }),
		wish.WithMiddleware(
			bm.Middleware(s.teaHandler),
			logging.Middleware(),
			activeterm.Middleware(),
		),
	)
	if err != nil {
		return nil, err
	}
	s.srv = srv
	return s, nil
}

// ListenAndServe serves on the configured address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts sessions on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting game server", "addr", ln.Addr().String())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Stopping game server")
		sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(sctx); err != nil {
			s.logger.Error("Shutdown error", "err", err)
			return err
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	id := identity(sess.PublicKey(), sess.RemoteAddr())
	logger := s.logger.With("user", sess.User())

	sc := newScope(s.opts.Directory, s.opts.Dial, logger)
	go func() {
		<-sess.Context().Done()
		sc.release()
	}()

	var authSession *auth.Session
	if url := s.opts.Config.Auth.URL; url != "" {
		authSession = auth.NewSession(auth.NewClient(url), &auth.MemoryStore{}, logger)
	}

	m := ui.InitialModel(ui.Options{
		Server:    s.opts.Config.Server,
		SessionID: id,
		Name:      sess.User(),
		MatchID:   matchFromCommand(sess.Command()),
		Dial:      sc.Dial,
		Auth:      authSession,
		Directory: sc,
		Logger:    logger,
	})
	return m, []tea.ProgramOption{tea.WithAltScreen()}
}

// identity names a session by its key fingerprint, or by its address for
// keyless logins.
func identity(key ssh.PublicKey, addr net.Addr) string {
	if key != nil {
		return gossh.FingerprintSHA256(key)
	}
	if addr == nil {
		return "anonymous"
	}
	return addr.String()
}

// matchFromCommand lets `ssh host <match-id>` go straight to a match.
func matchFromCommand(cmd []string) string {
	if len(cmd) != 1 {
		return ""
	}
	return cmd[0]
}
