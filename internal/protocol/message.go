package protocol

import (
	"errors"
	"fmt"

	"ultimate-tictactoe/internal/game"
)

const (
	TypeUserID      = "user_id"
	TypeInitialData = "initial_match_data"
	TypeMove        = "move"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrMalformed   = errors.New("malformed message")
)

// Inbound is a decoded server message: UserID, InitialMatchData or Move.
type Inbound interface {
	Type() string
}

type UserID struct {
	UserID string
}

type InitialMatchData struct {
	Board game.MetaGrid
	Turn  game.Mark
	Mark  game.Mark
}

type Move struct {
	Board      game.MetaGrid
	Turn       game.Mark
	ActiveGrid game.Coord
}

func (UserID) Type() string           { return TypeUserID }
func (InitialMatchData) Type() string { return TypeInitialData }
func (Move) Type() string             { return TypeMove }

// MoveRequest is the only message the client sends.
type MoveRequest struct {
	Grid int
	X    int
	Y    int
}

func (r MoveRequest) Cell() game.Coord {
	return game.Coord{X: r.X, Y: r.Y}
}

func (r MoveRequest) Validate() error {
	if r.Grid < 0 || r.Grid > 8 {
		return fmt.Errorf("%w: grid %d out of range", ErrMalformed, r.Grid)
	}
	if !r.Cell().Valid() {
		return fmt.Errorf("%w: cell (%d,%d) out of range", ErrMalformed, r.X, r.Y)
	}
	return nil
}

// --- Wire shapes ---

type envelope struct {
	Type string `json:"type"`
}

type wireUserID struct {
	UserID *string `json:"userId"`
}

type wireInitial struct {
	Board [][]game.Mark `json:"board"`
	Turn  game.Mark     `json:"turn"`
	Mark  game.Mark     `json:"mark"`
}

type wireMove struct {
	Board      [][]game.Mark `json:"board"`
	Turn       game.Mark     `json:"turn"`
	ActiveGrid *game.Coord   `json:"activeGrid"`
}

type wireMoveRequest struct {
	Type string `json:"type"`
	Grid int    `json:"grid"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}
