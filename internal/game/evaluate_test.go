package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	E = Empty
	O = Circle
	X = Cross
)

func TestWinner(t *testing.T) {
	tests := []struct {
		name   string
		grid   SubGrid
		winner Mark
		line   [3]int
		ok     bool
	}{
		{"empty", SubGrid{}, Empty, [3]int{}, false},
		{"top row circle", SubGrid{O, O, O, E, E, E, E, E, E}, Circle, [3]int{0, 1, 2}, true},
		{"middle row cross", SubGrid{E, E, E, X, X, X, E, E, E}, Cross, [3]int{3, 4, 5}, true},
		{"bottom row", SubGrid{E, E, E, E, E, E, O, O, O}, Circle, [3]int{6, 7, 8}, true},
		{"left column", SubGrid{X, E, E, X, E, E, X, E, E}, Cross, [3]int{0, 3, 6}, true},
		{"middle column", SubGrid{E, O, E, E, O, E, E, O, E}, Circle, [3]int{1, 4, 7}, true},
		{"right column", SubGrid{E, E, X, E, E, X, E, E, X}, Cross, [3]int{2, 5, 8}, true},
		{"main diagonal", SubGrid{O, E, E, E, O, E, E, E, O}, Circle, [3]int{0, 4, 8}, true},
		{"anti diagonal", SubGrid{E, E, X, E, X, E, X, E, E}, Cross, [3]int{2, 4, 6}, true},
		{"mixed line", SubGrid{O, X, O, E, E, E, E, E, E}, Empty, [3]int{}, false},
		{"full no winner", SubGrid{O, X, O, O, X, X, X, O, O}, Empty, [3]int{}, false},
		{"two in a row", SubGrid{X, X, E, E, E, E, E, E, E}, Empty, [3]int{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, line, ok := Winner(tt.grid)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.winner, winner)
			assert.Equal(t, tt.line, line)
		})
	}
}

func TestEvaluate_DrawOnlyForActiveGrid(t *testing.T) {
	full := SubGrid{O, X, O, O, X, X, X, O, O}

	var b MetaGrid
	b[0] = full
	b[4] = full

	a := Evaluate(b, Coord{X: 1, Y: 1})
	assert.Equal(t, None, a.Grids[0].Outcome, "inactive full grid must not be a draw")
	assert.Equal(t, Drawn, a.Grids[4].Outcome)

	a = Evaluate(b, Coord{X: 0, Y: 0})
	assert.Equal(t, Drawn, a.Grids[0].Outcome)
	assert.Equal(t, None, a.Grids[4].Outcome)
}

func TestEvaluate_WinsEverywhere(t *testing.T) {
	var b MetaGrid
	b[2] = SubGrid{X, X, X, E, E, E, E, E, E}
	b[7] = SubGrid{E, E, O, E, O, E, O, E, E}

	a := Evaluate(b, Center)
	results := a.Results()
	require.Len(t, results, 2)

	assert.Equal(t, Result{Outcome: Won, Grid: 2, Mark: Cross, Line: [3]int{0, 1, 2}}, results[0])
	assert.Equal(t, Result{Outcome: Won, Grid: 7, Mark: Circle, Line: [3]int{2, 4, 6}}, results[1])

	assert.True(t, a.OnLine(7, 4))
	assert.False(t, a.OnLine(7, 0))
	assert.False(t, a.OnLine(0, 0))
}

func TestEvaluate_WinBeatsDraw(t *testing.T) {
	var b MetaGrid
	b[4] = SubGrid{X, X, X, O, O, X, O, X, O}

	a := Evaluate(b, Center)
	assert.Equal(t, Won, a.Grids[4].Outcome)
	assert.Equal(t, "Winner: Cross", a.Grids[4].String())
}

func TestCoord(t *testing.T) {
	for i := 0; i < 9; i++ {
		c := CoordOf(i)
		assert.True(t, c.Valid())
		assert.Equal(t, i, c.Index())
	}
	assert.Equal(t, Coord{X: 2, Y: 1}, CoordOf(5))
	assert.False(t, Coord{X: 3, Y: 0}.Valid())
	assert.False(t, Coord{X: 0, Y: -1}.Valid())
}

func TestMarkJSON(t *testing.T) {
	var g SubGrid
	err := json.Unmarshal([]byte(`["Circle","Circle","Circle","Empty","Empty","Empty","Empty","Empty","Cross"]`), &g)
	require.NoError(t, err)
	assert.Equal(t, SubGrid{O, O, O, E, E, E, E, E, X}, g)

	out, err := json.Marshal(Cross)
	require.NoError(t, err)
	assert.JSONEq(t, `"Cross"`, string(out))

	var m Mark
	assert.Error(t, json.Unmarshal([]byte(`"cross"`), &m))
	assert.Error(t, json.Unmarshal([]byte(`1`), &m))

	assert.Equal(t, Circle, Cross.Opponent())
	assert.Equal(t, Empty, Empty.Opponent())
}
