package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"ultimate-tictactoe/internal/client"
	"ultimate-tictactoe/internal/directory"
	"ultimate-tictactoe/internal/ui"
)

const releaseTimeout = 5 * time.Second

// scope tracks what one SSH session opened so it can be released when the
// session ends without the player leaving through the menu.
type scope struct {
	store  directory.Store
	dial   ui.DialFunc
	logger *log.Logger

	mu       sync.Mutex
	conns    []ui.Conn
	hosted   map[string]struct{}
	released bool
}

func newScope(store directory.Store, dial ui.DialFunc, logger *log.Logger) *scope {
	return &scope{
		store:  store,
		dial:   dial,
		logger: logger,
		hosted: make(map[string]struct{}),
	}
}

func (s *scope) Dial(ctx context.Context, opts client.Options) (ui.Conn, error) {
	conn, err := s.dial(ctx, opts)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		conn.Close()
		return nil, client.ErrClosed
	}
	s.conns = append(openConns(s.conns), conn)
	return conn, nil
}

// openConns drops connections that already ended.
func openConns(conns []ui.Conn) []ui.Conn {
	open := conns[:0]
	for _, c := range conns {
		select {
		case <-c.Done():
		default:
			open = append(open, c)
		}
	}
	return open
}

func (s *scope) Publish(ctx context.Context, l directory.Listing) error {
	if err := s.store.Publish(ctx, l); err != nil {
		return err
	}
	s.mu.Lock()
	s.hosted[l.MatchID] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *scope) List(ctx context.Context) ([]directory.Listing, error) {
	return s.store.List(ctx)
}

func (s *scope) Remove(ctx context.Context, matchID string) error {
	s.mu.Lock()
	delete(s.hosted, matchID)
	s.mu.Unlock()
	return s.store.Remove(ctx, matchID)
}

// release closes every connection and withdraws every listing the
// session still holds.
func (s *scope) release() {
	s.mu.Lock()
	conns, hosted := s.conns, s.hosted
	s.conns, s.hosted = nil, make(map[string]struct{})
	s.released = true
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	for id := range hosted {
		if err := s.store.Remove(ctx, id); err != nil && !errors.Is(err, directory.ErrNotFound) {
			s.logger.Warn("Could not unpublish match", "match", id, "err", err)
		}
	}
}
