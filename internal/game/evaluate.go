package game

import "fmt"

var winningLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

// Winner checks the eight lines of g and returns the mark holding the
// first complete one, together with that line.
func Winner(g SubGrid) (Mark, [3]int, bool) {
	for _, w := range winningLines {
		a, b, c := g[w[0]], g[w[1]], g[w[2]]
		if a != Empty && a == b && b == c {
			return a, w, true
		}
	}
	return Empty, [3]int{}, false
}

// Outcome is what a sub-grid has come to.
type Outcome int

const (
	None Outcome = iota
	Won
	Drawn
)

// Result is a terminal state of one sub-grid.
type Result struct {
	Outcome Outcome
	Grid    int
	Mark    Mark
	Line    [3]int
}

func (r Result) String() string {
	switch r.Outcome {
	case Won:
		return fmt.Sprintf("Winner: %s", r.Mark)
	case Drawn:
		return "Draw"
	}
	return ""
}

// Annotations are display-only facts derived from a board.
type Annotations struct {
	Grids [9]Result
}

// Evaluate annotates every sub-grid of b. Draws are only reported for the
// active sub-grid.
func Evaluate(b MetaGrid, active Coord) Annotations {
	var a Annotations
	for i, g := range b {
		a.Grids[i].Grid = i
		if mark, line, ok := Winner(g); ok {
			a.Grids[i].Outcome = Won
			a.Grids[i].Mark = mark
			a.Grids[i].Line = line
			continue
		}
		if i == active.Index() && g.Full() {
			a.Grids[i].Outcome = Drawn
		}
	}
	return a
}

// Results lists the terminal results in sub-grid order.
func (a Annotations) Results() []Result {
	var out []Result
	for _, r := range a.Grids {
		if r.Outcome != None {
			out = append(out, r)
		}
	}
	return out
}

// OnLine reports whether cell of grid is part of that grid's winning line.
func (a Annotations) OnLine(grid, cell int) bool {
	r := a.Grids[grid]
	if r.Outcome != Won {
		return false
	}
	for _, i := range r.Line {
		if i == cell {
			return true
		}
	}
	return false
}
