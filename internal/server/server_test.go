package server

import (
	"bufio"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gossh "golang.org/x/crypto/ssh"

	"ultimate-tictactoe/internal/client"
	"ultimate-tictactoe/internal/config"
	"ultimate-tictactoe/internal/directory"
	"ultimate-tictactoe/internal/protocol"
	"ultimate-tictactoe/internal/ui"
)

type stubConn struct {
	once   sync.Once
	done   chan struct{}
	closed bool
}

func newStubConn() *stubConn { return &stubConn{done: make(chan struct{})} }

func (c *stubConn) Messages() <-chan protocol.Inbound                { return nil }
func (c *stubConn) Done() <-chan struct{}                            { return c.done }
func (c *stubConn) Err() error                                       { return nil }
func (c *stubConn) Send(context.Context, protocol.MoveRequest) error { return nil }
func (c *stubConn) Close() error {
	c.once.Do(func() {
		c.closed = true
		close(c.done)
	})
	return nil
}

func TestIdentity(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := gossh.NewPublicKey(pub)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(identity(key, nil), "SHA256:"))
	assert.Equal(t, "127.0.0.1:2222", identity(nil, &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 2222}))
	assert.Equal(t, "anonymous", identity(nil, nil))
}

func TestMatchFromCommand(t *testing.T) {
	assert.Equal(t, "abc-def", matchFromCommand([]string{"abc-def"}))
	assert.Empty(t, matchFromCommand(nil))
	assert.Empty(t, matchFromCommand([]string{"a", "b"}))
}

func TestScope_ReleasesSessionResources(t *testing.T) {
	// Given a session that hosted a match and opened a connection
	ctx := context.Background()
	store := directory.NewMemoryStore()
	conn := newStubConn()
	sc := newScope(store, func(context.Context, client.Options) (ui.Conn, error) {
		return conn, nil
	}, log.New(io.Discard))

	_, err := sc.Dial(ctx, client.Options{MatchID: "abc-def"})
	require.NoError(t, err)
	require.NoError(t, sc.Publish(ctx, directory.Listing{MatchID: "abc-def", HostName: "alice"}))
	require.NoError(t, store.Publish(ctx, directory.Listing{MatchID: "other-one"}))

	// When the session ends
	sc.release()

	// Then its connection is closed and only its listing is gone
	assert.True(t, conn.closed)
	list, err := sc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "other-one", list[0].MatchID)

	// and late dials are refused
	late := newStubConn()
	sc.dial = func(context.Context, client.Options) (ui.Conn, error) { return late, nil }
	_, err = sc.Dial(ctx, client.Options{MatchID: "abc-def"})
	assert.ErrorIs(t, err, client.ErrClosed)
	assert.True(t, late.closed)
}

func TestScope_PrunesClosedConnections(t *testing.T) {
	// Given a session that left one match and joined another
	ctx := context.Background()
	first, second := newStubConn(), newStubConn()
	next := []*stubConn{first, second}
	sc := newScope(directory.NewMemoryStore(), func(context.Context, client.Options) (ui.Conn, error) {
		c := next[0]
		next = next[1:]
		return c, nil
	}, log.New(io.Discard))

	_, err := sc.Dial(ctx, client.Options{MatchID: "abc-def"})
	require.NoError(t, err)
	first.Close()

	// When the next match is dialed
	_, err = sc.Dial(ctx, client.Options{MatchID: "ghi-jkl"})
	require.NoError(t, err)

	// Then only the live connection is tracked
	require.Len(t, sc.conns, 1)
	assert.Same(t, second, sc.conns[0])
}

func TestScope_RemoveForgetsListing(t *testing.T) {
	ctx := context.Background()
	store := directory.NewMemoryStore()
	sc := newScope(store, nil, log.New(io.Discard))

	require.NoError(t, sc.Publish(ctx, directory.Listing{MatchID: "abc-def"}))
	require.NoError(t, sc.Remove(ctx, "abc-def"))
	assert.Empty(t, sc.hosted)

	sc.release()
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	cfg := &config.Config{Server: "ws://127.0.0.1:1"}
	cfg.SSH.Host = "127.0.0.1"
	cfg.SSH.HostKeyPath = filepath.Join(t.TempDir(), "host_key")

	srv, err := New(Options{Config: cfg, Logger: log.New(io.Discard)})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	// the version banner proves the server accepted the connection
	conn, err := net.DialTimeout("tcp", ln.Addr().String(), 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	banner, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(banner, "SSH-2.0-"))
	conn.Close()

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
