package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"ultimate-tictactoe/internal/protocol"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
	inboxSize        = 16
)

var (
	ErrInvalidMatchID = errors.New("match id must be lowercase letters and dashes")
	ErrClosed         = errors.New("connection closed")
)

var matchIDPattern = regexp.MustCompile(`^[a-z-]+$`)

func ValidateMatchID(id string) error {
	if !matchIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidMatchID, id)
	}
	return nil
}

// MatchURL joins the server base URL and a match id into the endpoint
// that serves that match.
func MatchURL(server, matchID string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/match/" + matchID
	return u.String(), nil
}

type Options struct {
	Server  string
	MatchID string
	// Bearer is sent as an Authorization header when set.
	Bearer string
	Logger *log.Logger
}

// Conn is the one live connection of a client session. Messages are
// delivered in arrival order; the first read or write failure ends it.
type Conn struct {
	ws     *websocket.Conn
	logger *log.Logger

	inbox chan protocol.Inbound
	done  chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

func Dial(ctx context.Context, opts Options) (*Conn, error) {
	if err := ValidateMatchID(opts.MatchID); err != nil {
		return nil, err
	}
	endpoint, err := MatchURL(opts.Server, opts.MatchID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if opts.Bearer != "" {
		header.Set("Authorization", "Bearer "+opts.Bearer)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	ws, resp, err := dialer.DialContext(ctx, endpoint, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	c := &Conn{
		ws:     ws,
		logger: logger.With("match", opts.MatchID),
		inbox:  make(chan protocol.Inbound, inboxSize),
		done:   make(chan struct{}),
	}
	c.logger.Info("Connected", "url", endpoint)

	go c.readLoop()
	return c, nil
}

// Messages yields decoded server messages. It is closed when the
// connection ends.
func (c *Conn) Messages() <-chan protocol.Inbound {
	return c.inbox
}

// Done is closed once the connection has ended for any reason.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err is the reason the connection ended, nil while it is open or after a
// clean close.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Conn) readLoop() {
	defer close(c.inbox)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("Server closed the connection")
				c.shutdown(nil)
			} else {
				c.shutdown(err)
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			c.logger.Warn("Ignoring message", "err", err)
			continue
		}
		c.logger.Debug("Received", "type", msg.Type())

		select {
		case c.inbox <- msg:
		case <-c.done:
			return
		}
	}
}

// Send writes one move to the server.
func (c *Conn) Send(ctx context.Context, req protocol.MoveRequest) error {
	payload, err := protocol.EncodeMove(req)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.shutdown(err)
		return fmt.Errorf("failed to send move: %w", err)
	}
	c.logger.Debug("Sent move", "grid", req.Grid, "x", req.X, "y", req.Y)
	return nil
}

// Close ends the connection with a normal close frame. It is safe to call
// more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.writeMu.Unlock()

		close(c.done)
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) shutdown(cause error) {
	c.closeOnce.Do(func() {
		c.errMu.Lock()
		c.err = cause
		c.errMu.Unlock()
		if cause != nil {
			c.logger.Error("Connection lost", "err", cause)
		}
		close(c.done)
		c.ws.Close()
	})
}
