package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ultimate-tictactoe/internal/game"
	"ultimate-tictactoe/internal/protocol"
)

const (
	E = game.Empty
	O = game.Circle
	X = game.Cross
)

type unknownMsg struct{}

func (unknownMsg) Type() string { return "chat" }

func readyState(t *testing.T, board game.MetaGrid, turn, mark game.Mark) State {
	t.Helper()
	s := New().Apply(protocol.InitialMatchData{Board: board, Turn: turn, Mark: mark})
	require.True(t, s.Ready)
	return s
}

func TestApply_UserIDIsInvisible(t *testing.T) {
	s := New()
	next := s.Apply(protocol.UserID{UserID: "abc"})

	assert.Equal(t, "abc", next.UserID)
	assert.False(t, next.Ready)
	assert.Equal(t, s.Board, next.Board)
	assert.Equal(t, game.Center, next.Active)
}

func TestApply_InitialMatchDataReplacesState(t *testing.T) {
	var board game.MetaGrid
	board[3][1] = X

	s := New().Apply(protocol.InitialMatchData{Board: board, Turn: X, Mark: O})

	assert.True(t, s.Ready)
	assert.Equal(t, board, s.Board)
	assert.Equal(t, X, s.Turn)
	assert.Equal(t, O, s.Mark)
	assert.Equal(t, game.Center, s.Active, "initial data does not move the active grid")
	assert.False(t, s.MyTurn())
}

func TestApply_InitialMatchDataIsIdempotent(t *testing.T) {
	var board game.MetaGrid
	board[0] = game.SubGrid{X, X, X, E, E, E, E, E, E}
	msg := protocol.InitialMatchData{Board: board, Turn: O, Mark: O}

	once := New().Apply(msg)
	twice := once.Apply(msg)

	assert.Equal(t, once, twice)
	require.Len(t, twice.Pending, 1)
}

func TestApply_MoveReplacesBoardAtomically(t *testing.T) {
	s := readyState(t, game.NewMetaGrid(), X, X)

	var board game.MetaGrid
	board[4][5] = X
	board[8][0] = O
	next := s.Apply(protocol.Move{Board: board, Turn: O, ActiveGrid: game.Coord{X: 2, Y: 1}})

	assert.Equal(t, board, next.Board)
	assert.Equal(t, O, next.Turn)
	assert.Equal(t, game.Coord{X: 2, Y: 1}, next.Active)
	assert.Equal(t, X, next.Mark, "mark is held for the session")

	// the previous value is untouched
	assert.Equal(t, game.NewMetaGrid(), s.Board)
	assert.Equal(t, game.Center, s.Active)
}

func TestApply_UnknownMessageLeavesStateUnchanged(t *testing.T) {
	var board game.MetaGrid
	board[1][1] = O
	s := readyState(t, board, O, X)

	assert.Equal(t, s, s.Apply(unknownMsg{}))
	assert.Equal(t, s, s.Apply(nil))
}

func TestOutcome_NotifiesOncePerResult(t *testing.T) {
	s := readyState(t, game.NewMetaGrid(), X, X)

	var board game.MetaGrid
	board[2] = game.SubGrid{X, X, X, O, O, E, E, E, E}
	move := protocol.Move{Board: board, Turn: O, ActiveGrid: game.Coord{X: 2, Y: 0}}

	s = s.Apply(move)
	r, ok := s.Outcome()
	require.True(t, ok)
	assert.Equal(t, game.Won, r.Outcome)
	assert.Equal(t, X, r.Mark)
	assert.Equal(t, 2, r.Grid)

	s = s.DismissOutcome()
	_, ok = s.Outcome()
	require.False(t, ok)

	// a stable board re-delivered does not fire again
	s = s.Apply(move)
	_, ok = s.Outcome()
	assert.False(t, ok)

	// a new result elsewhere does
	board[6] = game.SubGrid{O, E, E, O, E, E, O, E, E}
	s = s.Apply(protocol.Move{Board: board, Turn: X, ActiveGrid: game.Coord{X: 0, Y: 0}})
	r, ok = s.Outcome()
	require.True(t, ok)
	assert.Equal(t, 6, r.Grid)
	assert.Equal(t, O, r.Mark)
}

func TestOutcome_DrawOnlyWhenActive(t *testing.T) {
	full := game.SubGrid{O, X, O, O, X, X, X, O, O}

	var board game.MetaGrid
	board[0] = full
	s := readyState(t, game.NewMetaGrid(), X, X)

	s = s.Apply(protocol.Move{Board: board, Turn: O, ActiveGrid: game.Coord{X: 1, Y: 1}})
	_, ok := s.Outcome()
	assert.False(t, ok, "inactive full grid is not a draw")

	s = s.Apply(protocol.Move{Board: board, Turn: O, ActiveGrid: game.Coord{X: 0, Y: 0}})
	r, ok := s.Outcome()
	require.True(t, ok)
	assert.Equal(t, game.Drawn, r.Outcome)
	s = s.DismissOutcome()

	// moving away and back does not re-fire
	s = s.Apply(protocol.Move{Board: board, Turn: X, ActiveGrid: game.Coord{X: 1, Y: 1}})
	s = s.Apply(protocol.Move{Board: board, Turn: O, ActiveGrid: game.Coord{X: 0, Y: 0}})
	_, ok = s.Outcome()
	assert.False(t, ok)
}

func TestSelect(t *testing.T) {
	var board game.MetaGrid
	board[4][0] = O

	tests := []struct {
		name  string
		turn  game.Mark
		mark  game.Mark
		grid  int
		cell  game.Coord
		want  protocol.MoveRequest
		valid bool
	}{
		{"accepted", X, X, 4, game.Coord{X: 2, Y: 1}, protocol.MoveRequest{Grid: 4, X: 2, Y: 1}, true},
		{"inactive grid", X, X, 3, game.Coord{X: 2, Y: 1}, protocol.MoveRequest{}, false},
		{"opponent's turn", O, X, 4, game.Coord{X: 2, Y: 1}, protocol.MoveRequest{}, false},
		{"occupied cell", X, X, 4, game.Coord{X: 0, Y: 0}, protocol.MoveRequest{}, false},
		{"grid out of range", X, X, 9, game.Coord{X: 0, Y: 0}, protocol.MoveRequest{}, false},
		{"cell out of range", X, X, 4, game.Coord{X: 0, Y: 3}, protocol.MoveRequest{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := readyState(t, board, tt.turn, tt.mark)
			before := s

			req, ok := s.Select(tt.grid, tt.cell)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, req)
			assert.Equal(t, before, s)
		})
	}
}

func TestSelect_BeforeInitialData(t *testing.T) {
	_, ok := New().Select(4, game.Coord{X: 0, Y: 0})
	assert.False(t, ok)
}
