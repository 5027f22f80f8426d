// Package session holds the client's view of a match: the last board the
// server pushed plus display annotations derived from it.
package session

import (
	"ultimate-tictactoe/internal/game"
	"ultimate-tictactoe/internal/protocol"
)

// State is owned by the presentation layer and only changes through Apply.
// It is a value; Apply returns the next state and never mutates its
// receiver.
type State struct {
	UserID string

	// Ready is false until initial match data has arrived.
	Ready  bool
	Board  game.MetaGrid
	Turn   game.Mark
	Mark   game.Mark
	Active game.Coord

	Annotations game.Annotations

	// Pending holds results not yet shown to the user, oldest first.
	Pending  []game.Result
	notified [9]game.Result
}

func New() State {
	return State{Active: game.Center}
}

// Apply folds one server message into the state.
func (s State) Apply(msg protocol.Inbound) State {
	switch m := msg.(type) {
	case protocol.UserID:
		s.UserID = m.UserID
		return s
	case protocol.InitialMatchData:
		s.Board = m.Board
		s.Turn = m.Turn
		s.Mark = m.Mark
		s.Ready = true
	case protocol.Move:
		s.Board = m.Board
		s.Turn = m.Turn
		s.Active = m.ActiveGrid
	default:
		return s
	}
	return s.annotate()
}

func (s State) annotate() State {
	s.Annotations = game.Evaluate(s.Board, s.Active)

	pending := append([]game.Result(nil), s.Pending...)
	for i, r := range s.Annotations.Grids {
		switch {
		case r.Outcome == game.None:
			// a full grid keeps its draw once notified, even when it is
			// no longer the active one
			if !s.Board[i].Full() {
				s.notified[i] = game.Result{}
			}
		case r != s.notified[i]:
			s.notified[i] = r
			pending = append(pending, r)
		}
	}
	s.Pending = pending
	return s
}

// Outcome is the notification currently due, if any.
func (s State) Outcome() (game.Result, bool) {
	if len(s.Pending) == 0 {
		return game.Result{}, false
	}
	return s.Pending[0], true
}

// DismissOutcome drops the notification returned by Outcome.
func (s State) DismissOutcome() State {
	if len(s.Pending) > 0 {
		s.Pending = append([]game.Result(nil), s.Pending[1:]...)
	}
	return s
}

func (s State) MyTurn() bool {
	return s.Ready && s.Mark.IsPlayer() && s.Turn == s.Mark
}

// IsActive reports whether grid is the sub-grid that accepts input.
func (s State) IsActive(grid int) bool {
	return grid == s.Active.Index()
}

// Select maps a press on cell of grid to the move the server should
// receive. It reports false when the press must be ignored: the grid is
// not active, it is not this player's turn, or the cell is taken. The
// state itself is never changed; the board moves on the next server push.
func (s State) Select(grid int, cell game.Coord) (protocol.MoveRequest, bool) {
	if grid < 0 || grid > 8 || !cell.Valid() {
		return protocol.MoveRequest{}, false
	}
	if !s.IsActive(grid) || !s.MyTurn() {
		return protocol.MoveRequest{}, false
	}
	if s.Board.Cell(grid, cell) != game.Empty {
		return protocol.MoveRequest{}, false
	}
	return protocol.MoveRequest{Grid: grid, X: cell.X, Y: cell.Y}, true
}
