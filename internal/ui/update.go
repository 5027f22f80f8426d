package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/skip2/go-qrcode"

	"ultimate-tictactoe/internal/auth"
	"ultimate-tictactoe/internal/client"
	"ultimate-tictactoe/internal/directory"
	"ultimate-tictactoe/internal/game"
	"ultimate-tictactoe/internal/session"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
	case loginRequiredMsg:
		// credentials are gone; back to the login entry point
		if m.opts.Auth == nil {
			return m, nil
		}
		if msg.err != nil {
			m.opts.Logger.Warn("Login required", "err", msg.err)
		}
		m, cmd = m.leaveMatch()
		m.State = StateLogin
		m.Login = newLoginForm(false)
		return m, cmd
	case joinMsg:
		return m.join(string(msg), false)
	case connectedMsg:
		if m.State != StateConnecting || msg.seq != m.dialSeq {
			// the player left while dialing
			return m, closeConnCmd(msg.conn)
		}
		m.conn = msg.conn
		m.State = StateWaiting
		return m, waitForMessage(m.conn)
	case connClosedMsg:
		if msg.conn != m.conn {
			return m, nil
		}
		if msg.err != nil {
			m.opts.Logger.Error("Connection closed", "err", msg.err)
		} else {
			m.opts.Logger.Info("Connection closed")
		}
		m.ConnLost = true
		m.PopupActive = false
		m.Err = msg.err
		return m, nil
	}

	// Connection closed notice blocks everything else
	if m.ConnLost {
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "enter", "esc":
				m.ConnLost = false
				m.Err = nil
				m, cmd = m.leaveMatch()
				m.State = StateMenu
				return m, cmd
			case "q":
				return m, m.quit()
			}
		}
		return m, nil
	}

	// Leave confirmation
	if m.PopupActive {
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "y", "enter":
				m.PopupActive = false
				m.Err = nil
				m, cmd = m.leaveMatch()
				m.State = StateMenu
				return m, cmd
			case "n", "esc":
				m.PopupActive = false
			}
			return m, nil
		}
	}

	// State Machine
	switch m.State {
	case StateLogin:
		m, cmd = updateLogin(m, msg)
	case StateMenu:
		m, cmd = updateMenu(m, msg)
	case StateMatchInput:
		m, cmd = updateMatchInput(m, msg)
	case StateOpenMatches:
		m, cmd = updateOpenMatches(m, msg)
	case StateConnecting, StateWaiting, StateGame:
		m, cmd = updateMatch(m, msg)
	}

	return m, cmd
}

func (m Model) quit() tea.Cmd {
	if m.conn == nil {
		return tea.Quit
	}
	_, cmd := m.leaveMatch()
	return tea.Sequence(cmd, tea.Quit)
}

// join starts a session for matchID. Hosts also advertise it.
func (m Model) join(matchID string, host bool) (Model, tea.Cmd) {
	if err := client.ValidateMatchID(matchID); err != nil {
		m.Err = err
		return m, nil
	}

	m.Err = nil
	m.MatchID = matchID
	m.IsHost = host
	m.State = StateConnecting
	m.Match = session.New()
	m.CursorR, m.CursorC = 4, 4
	m.ShareQR = ""
	m.dialSeq++
	if url, err := client.MatchURL(m.opts.Server, matchID); err == nil {
		if qr, err := qrcode.New(url, qrcode.Low); err == nil {
			m.ShareQR = qr.ToSmallString(false)
		}
	}

	cmds := []tea.Cmd{connectCmd(m.opts, matchID, m.dialSeq)}
	if host {
		cmds = append(cmds, publishCmd(m.opts, directory.Listing{
			MatchID:   matchID,
			HostName:  m.MyName,
			HostID:    m.SessionID,
			CreatedAt: time.Now(),
		}))
	}
	return m, tea.Batch(cmds...)
}

// leaveMatch drops the connection and everything learned from it.
func (m Model) leaveMatch() (Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.conn != nil {
		cmds = append(cmds, closeConnCmd(m.conn))
	}
	if m.IsHost && m.MatchID != "" {
		cmds = append(cmds, unpublishCmd(m.opts, m.MatchID))
	}
	m.conn = nil
	m.IsHost = false
	m.MatchID = ""
	m.ShareQR = ""
	m.Match = session.New()
	return m, tea.Batch(cmds...)
}

// --- 1. Login ---
func updateLogin(m Model, msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case meMsg:
		m.MyName = msg.Email
		m.Err = nil
		m.State = StateMenu
		if m.MatchID != "" {
			return m.join(m.MatchID, false)
		}
		return m, nil
	case errMsg:
		m.Err = msg
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+r":
			m.Login = newLoginForm(!m.Login.Registering)
			m.Err = nil
			return m, textinput.Blink
		case "tab", "down", "shift+tab", "up":
			step := 1
			if s := msg.String(); s == "shift+tab" || s == "up" {
				step = len(m.Login.Inputs) - 1
			}
			m.Login.Focus = (m.Login.Focus + step) % len(m.Login.Inputs)
			inputs := make([]textinput.Model, len(m.Login.Inputs))
			copy(inputs, m.Login.Inputs)
			for i := range inputs {
				if i == m.Login.Focus {
					inputs[i].Focus()
				} else {
					inputs[i].Blur()
				}
			}
			m.Login.Inputs = inputs
			return m, textinput.Blink
		case "enter":
			email := strings.TrimSpace(m.Login.Inputs[0].Value())
			password := m.Login.Inputs[1].Value()
			var err error
			if m.Login.Registering {
				err = auth.ValidateRegistration(email, password, m.Login.Inputs[2].Value())
			} else {
				err = auth.ValidateLogin(email, password)
			}
			if err != nil {
				m.Err = err
				return m, nil
			}
			m.Err = nil
			return m, loginCmd(m.opts.Auth, email, password, m.Login.Registering)
		}
	}

	// inputs are copied with the model; update the focused one in place
	inputs := make([]textinput.Model, len(m.Login.Inputs))
	copy(inputs, m.Login.Inputs)
	var cmd tea.Cmd
	inputs[m.Login.Focus], cmd = inputs[m.Login.Focus].Update(msg)
	m.Login.Inputs = inputs
	return m, cmd
}

// --- 2. Main Menu ---
func menuOptions(m Model) []string {
	opts := []string{"Host Match", "Join with ID", "Open Matches"}
	if m.opts.Auth != nil {
		opts = append(opts, "Log Out")
	}
	return append(opts, "Quit")
}

func updateMenu(m Model, msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case errMsg:
		m.Err = msg
	case meMsg:
		m.MyName = msg.Email
	case tea.KeyMsg:
		options := menuOptions(m)
		switch msg.String() {
		case "up", "k":
			if m.MenuIndex > 0 {
				m.MenuIndex--
			}
		case "down", "j":
			if m.MenuIndex < len(options)-1 {
				m.MenuIndex++
			}
		case "enter":
			m.Err = nil
			switch options[m.MenuIndex] {
			case "Host Match":
				return m.join(generateMatchID(), true)
			case "Join with ID":
				m.State = StateMatchInput
				m.TextInput.SetValue("")
				m.TextInput.Focus()
				return m, textinput.Blink
			case "Open Matches":
				m.State = StateOpenMatches
				m.SearchInput.SetValue("")
				m.SearchInput.Focus()
				m.ListSelectedRow = 0
				return m, fetchMatchesCmd(m.opts.Directory)
			case "Log Out":
				m.MenuIndex = 0
				return m, logoutCmd(m.opts.Auth)
			default:
				return m, m.quit()
			}
		}
	}
	return m, nil
}

// --- 3. Match ID Input ---
func updateMatchInput(m Model, msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case errMsg:
		m.Err = msg
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			id := strings.ToLower(strings.TrimSpace(m.TextInput.Value()))
			return m.join(id, false)
		case tea.KeyEsc:
			m.State = StateMenu
			m.Err = nil
			return m, nil
		}
	}
	m.TextInput, cmd = m.TextInput.Update(msg)
	return m, cmd
}

// --- 4. Open Matches ---
func visibleMatches(m Model) []directory.Listing {
	return directory.Filter(m.OpenMatches, m.SearchInput.Value())
}

func updateOpenMatches(m Model, msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case listingsMsg:
		m.OpenMatches = []directory.Listing(msg)
		m.Err = nil
		if n := len(visibleMatches(m)); m.ListSelectedRow >= n {
			m.ListSelectedRow = max(0, n-1)
		}
		return m, nil
	case errMsg:
		m.Err = msg
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.State = StateMenu
			m.Err = nil
			return m, nil
		case "up", "shift+tab":
			if m.ListSelectedRow > 0 {
				m.ListSelectedRow--
			}
			return m, nil
		case "down", "tab":
			if m.ListSelectedRow < len(visibleMatches(m))-1 {
				m.ListSelectedRow++
			}
			return m, nil
		case "ctrl+r":
			return m, fetchMatchesCmd(m.opts.Directory)
		case "enter":
			list := visibleMatches(m)
			if m.ListSelectedRow < len(list) {
				return m.join(list[m.ListSelectedRow].MatchID, false)
			}
			return m, nil
		}
	}
	m.SearchInput, cmd = m.SearchInput.Update(msg)
	if n := len(visibleMatches(m)); m.ListSelectedRow >= n {
		m.ListSelectedRow = max(0, n-1)
	}
	return m, cmd
}

// --- 5. Match ---
func updateMatch(m Model, msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case inboundMsg:
		if msg.conn != m.conn {
			return m, nil
		}
		queued := len(m.Match.Pending)
		m.Match = m.Match.Apply(msg.msg)
		if m.State == StateWaiting && m.Match.Ready {
			m.State = StateGame
			m.focusActiveGrid()
		}
		for _, r := range m.Match.Pending[min(queued, len(m.Match.Pending)):] {
			m.opts.Logger.Info("Sub-grid finished", "grid", r.Grid, "result", r.String())
		}
		return m, waitForMessage(m.conn)

	case errMsg:
		if m.State == StateConnecting {
			var cmd tea.Cmd
			m, cmd = m.leaveMatch()
			m.State = StateMenu
			m.Err = msg
			return m, cmd
		}
		m.Err = msg
		return m, nil

	case tea.KeyMsg:
		if m.State == StateGame {
			if _, pending := m.Match.Outcome(); pending {
				switch msg.String() {
				case "enter", "esc", " ", "space":
					m.Match = m.Match.DismissOutcome()
				case "q":
					m.PopupActive = true
				}
				return m, nil
			}
		}

		if msg.String() == "q" || msg.String() == "esc" {
			if m.State == StateConnecting {
				var cmd tea.Cmd
				m, cmd = m.leaveMatch()
				m.State = StateMenu
				return m, cmd
			}
			m.PopupActive = true
			return m, nil
		}
		if m.State != StateGame {
			return m, nil
		}

		switch msg.String() {
		case "up", "k":
			if m.CursorR > 0 {
				m.CursorR--
			}
		case "down", "j":
			if m.CursorR < 8 {
				m.CursorR++
			}
		case "left", "h":
			if m.CursorC > 0 {
				m.CursorC--
			}
		case "right", "l":
			if m.CursorC < 8 {
				m.CursorC++
			}
		case "tab":
			m.focusActiveGrid()
		case " ", "space", "enter":
			grid, cell := m.cursor()
			if req, ok := m.Match.Select(grid, cell); ok {
				m.Err = nil
				return m, sendMoveCmd(m.conn, req)
			}
		}
	}
	return m, nil
}

// cursor splits the 9x9 cursor into a sub-grid index and a cell.
func (m Model) cursor() (int, game.Coord) {
	grid := game.Coord{X: m.CursorC / 3, Y: m.CursorR / 3}.Index()
	return grid, game.Coord{X: m.CursorC % 3, Y: m.CursorR % 3}
}

// focusActiveGrid puts the cursor on the first free cell of the active
// sub-grid, or its centre when it is full.
func (m *Model) focusActiveGrid() {
	active := m.Match.Active
	cell := game.Center
	for i, v := range m.Match.Board[active.Index()] {
		if v == game.Empty {
			cell = game.CoordOf(i)
			break
		}
	}
	m.CursorR = active.Y*3 + cell.Y
	m.CursorC = active.X*3 + cell.X
}
