package ui

import (
	"context"
	"errors"
	"math/rand"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ultimate-tictactoe/internal/auth"
	"ultimate-tictactoe/internal/client"
	"ultimate-tictactoe/internal/directory"
	"ultimate-tictactoe/internal/protocol"
)

const requestTimeout = 10 * time.Second

// Messages
type joinMsg string
type connectedMsg struct {
	conn Conn
	seq  int
}
type inboundMsg struct {
	conn Conn
	msg  protocol.Inbound
}
type connClosedMsg struct {
	conn Conn
	err  error
}
type listingsMsg []directory.Listing
type meMsg auth.Me
type loginRequiredMsg struct{ err error }
type errMsg error

func connectCmd(opts Options, matchID string, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var bearer string
		if opts.Auth != nil {
			token, err := opts.Auth.Bearer(ctx)
			if err != nil {
				return loginRequiredMsg{err: err}
			}
			bearer = token
		}

		conn, err := opts.Dial(ctx, client.Options{
			Server:  opts.Server,
			MatchID: matchID,
			Bearer:  bearer,
			Logger:  opts.Logger,
		})
		if err != nil {
			return errMsg(err)
		}
		return connectedMsg{conn: conn, seq: seq}
	}
}

// waitForMessage hands the next server message to the update loop. One is
// issued per handled message, so messages are applied in arrival order.
func waitForMessage(conn Conn) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-conn.Messages()
		if !ok {
			return connClosedMsg{conn: conn, err: conn.Err()}
		}
		return inboundMsg{conn: conn, msg: msg}
	}
}

func sendMoveCmd(conn Conn, req protocol.MoveRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := conn.Send(ctx, req); err != nil {
			return errMsg(err)
		}
		return nil
	}
}

func closeConnCmd(conn Conn) tea.Cmd {
	return func() tea.Msg {
		conn.Close()
		return nil
	}
}

func fetchMatchesCmd(store directory.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := store.List(ctx)
		if err != nil {
			return errMsg(err)
		}
		return listingsMsg(list)
	}
}

// publishCmd advertises a hosted match. A failing directory does not stop
// the game, so errors are only logged.
func publishCmd(opts Options, l directory.Listing) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := opts.Directory.Publish(ctx, l); err != nil {
			opts.Logger.Warn("Could not publish match", "match", l.MatchID, "err", err)
		}
		return nil
	}
}

func unpublishCmd(opts Options, matchID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := opts.Directory.Remove(ctx, matchID); err != nil && !errors.Is(err, directory.ErrNotFound) {
			opts.Logger.Warn("Could not unpublish match", "match", matchID, "err", err)
		}
		return nil
	}
}

func restoreSessionCmd(s *auth.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		me, err := s.Me(ctx)
		if err != nil {
			return loginRequiredMsg{}
		}
		return meMsg(me)
	}
}

func loginCmd(s *auth.Session, email, password string, register bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var (
			me  auth.Me
			err error
		)
		if register {
			me, err = s.Register(ctx, email, password)
		} else {
			me, err = s.Login(ctx, email, password)
		}
		if err != nil {
			return errMsg(err)
		}
		return meMsg(me)
	}
}

func logoutCmd(s *auth.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		s.Logout(ctx)
		return loginRequiredMsg{}
	}
}

// generateMatchID makes an id the game server accepts: lowercase letters
// and dashes only.
func generateMatchID() string {
	const chars = "abcdefghijkmnpqrstuvwxyz"
	b := make([]byte, 9)
	for i := range b {
		if i == 4 {
			b[i] = '-'
			continue
		}
		b[i] = chars[rand.Intn(len(chars))]
	}
	return string(b)
}
