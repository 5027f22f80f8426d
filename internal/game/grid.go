package game

import (
	"encoding/json"
	"fmt"
)

// Mark is the value held by a single cell, and also a player's symbol.
type Mark int

const (
	Empty Mark = iota
	Circle
	Cross
)

var markNames = [...]string{"Empty", "Circle", "Cross"}

func (m Mark) String() string {
	if m < Empty || m > Cross {
		return fmt.Sprintf("Mark(%d)", int(m))
	}
	return markNames[m]
}

// Opponent returns the other player's mark. Empty has no opponent.
func (m Mark) Opponent() Mark {
	switch m {
	case Circle:
		return Cross
	case Cross:
		return Circle
	}
	return Empty
}

// IsPlayer reports whether m is Circle or Cross.
func (m Mark) IsPlayer() bool {
	return m == Circle || m == Cross
}

func ParseMark(s string) (Mark, error) {
	for i, name := range markNames {
		if s == name {
			return Mark(i), nil
		}
	}
	return Empty, fmt.Errorf("unknown mark %q", s)
}

func (m Mark) MarshalJSON() ([]byte, error) {
	if m < Empty || m > Cross {
		return nil, fmt.Errorf("invalid mark %d", int(m))
	}
	return json.Marshal(markNames[m])
}

func (m *Mark) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("mark must be a string: %w", err)
	}
	parsed, err := ParseMark(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Coord addresses a cell in a sub-grid, or a sub-grid in the meta-grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Center is where the first move of a match is expected.
var Center = Coord{X: 1, Y: 1}

func (c Coord) Valid() bool {
	return c.X >= 0 && c.X < 3 && c.Y >= 0 && c.Y < 3
}

// Index is the row-major position of c.
func (c Coord) Index() int {
	return c.Y*3 + c.X
}

func CoordOf(i int) Coord {
	return Coord{X: i % 3, Y: i / 3}
}

// SubGrid is one 3x3 block, row-major.
type SubGrid [9]Mark

func (g SubGrid) At(c Coord) Mark {
	return g[c.Index()]
}

// Full reports whether no Empty cell remains.
func (g SubGrid) Full() bool {
	for _, v := range g {
		if v == Empty {
			return false
		}
	}
	return true
}

// MetaGrid is the full board: nine sub-grids, row-major.
type MetaGrid [9]SubGrid

// NewMetaGrid returns an all-Empty board.
func NewMetaGrid() MetaGrid {
	return MetaGrid{}
}

func (b MetaGrid) Cell(grid int, cell Coord) Mark {
	return b[grid][cell.Index()]
}
