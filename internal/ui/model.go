package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"ultimate-tictactoe/internal/auth"
	"ultimate-tictactoe/internal/client"
	"ultimate-tictactoe/internal/directory"
	"ultimate-tictactoe/internal/protocol"
	"ultimate-tictactoe/internal/session"
)

type SessionState int

const (
	StateLogin SessionState = iota
	StateMenu
	StateMatchInput
	StateOpenMatches
	StateConnecting
	StateWaiting
	StateGame
)

// Conn is the part of *client.Conn the UI uses.
type Conn interface {
	Messages() <-chan protocol.Inbound
	Done() <-chan struct{}
	Err() error
	Send(ctx context.Context, req protocol.MoveRequest) error
	Close() error
}

type DialFunc func(ctx context.Context, opts client.Options) (Conn, error)

// DialWebsocket dials the real game server.
func DialWebsocket(ctx context.Context, opts client.Options) (Conn, error) {
	return client.Dial(ctx, opts)
}

// Options are the collaborators of one UI session.
type Options struct {
	Server    string
	SessionID string
	Name      string
	// MatchID, when set, is joined right away.
	MatchID   string
	Dial      DialFunc
	Auth      *auth.Session
	Directory directory.Store
	Logger    *log.Logger
}

type loginForm struct {
	Inputs      []textinput.Model
	Focus       int
	Registering bool
}

type Model struct {
	Width, Height int
	SessionID     string
	Err           error

	State     SessionState
	TextInput textinput.Model
	MenuIndex int
	// PopupActive asks to confirm leaving the match.
	PopupActive bool
	// ConnLost blocks the screen after the connection ended.
	ConnLost bool

	Login loginForm

	SearchInput     textinput.Model
	OpenMatches     []directory.Listing
	ListSelectedRow int

	MyName   string
	MatchID  string
	IsHost   bool
	ShareQR  string
	CursorR  int
	CursorC  int
	Match    session.State

	opts    Options
	conn    Conn
	dialSeq int
}

func InitialModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "match-id"
	ti.CharLimit = 32

	si := textinput.New()
	si.Placeholder = "Search matches..."
	si.CharLimit = 20

	if opts.Dial == nil {
		opts.Dial = DialWebsocket
	}
	if opts.Directory == nil {
		opts.Directory = directory.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	opts.Logger = opts.Logger.With("session", opts.SessionID)

	m := Model{
		State:       StateMenu,
		TextInput:   ti,
		SearchInput: si,
		SessionID:   opts.SessionID,
		MyName:      opts.Name,
		MatchID:     opts.MatchID,
		Login:       newLoginForm(false),
		CursorR:     4,
		CursorC:     4,
		Match:       session.New(),
		opts:        opts,
	}
	if opts.Auth != nil {
		m.State = StateLogin
	}
	return m
}

func newLoginForm(registering bool) loginForm {
	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 64
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.CharLimit = 50
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	inputs := []textinput.Model{email, password}
	if registering {
		confirm := password
		confirm.Placeholder = "Confirm password"
		confirm.Blur()
		inputs = append(inputs, confirm)
	}
	return loginForm{Inputs: inputs, Registering: registering}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	switch {
	case m.opts.Auth != nil:
		// a stored session skips the login screen
		cmds = append(cmds, restoreSessionCmd(m.opts.Auth))
	case m.MatchID != "":
		cmds = append(cmds, func() tea.Msg { return joinMsg(m.MatchID) })
	}
	return tea.Batch(cmds...)
}

// Conn is the live connection, nil outside a match.
func (m Model) Conn() Conn {
	return m.conn
}
