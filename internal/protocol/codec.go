package protocol

import (
	"encoding/json"
	"fmt"

	"ultimate-tictactoe/internal/game"
)

// Decode parses one server frame. Frames with an unrecognised type return
// an error wrapping ErrUnknownType; anything that does not fit the shape
// of its type wraps ErrMalformed.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeUserID:
		var w wireUserID
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if w.UserID == nil {
			return nil, fmt.Errorf("%w: user_id without userId", ErrMalformed)
		}
		return UserID{UserID: *w.UserID}, nil

	case TypeInitialData:
		var w wireInitial
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		board, err := toMetaGrid(w.Board)
		if err != nil {
			return nil, err
		}
		if !w.Turn.IsPlayer() || !w.Mark.IsPlayer() {
			return nil, fmt.Errorf("%w: turn %s, mark %s", ErrMalformed, w.Turn, w.Mark)
		}
		return InitialMatchData{Board: board, Turn: w.Turn, Mark: w.Mark}, nil

	case TypeMove:
		var w wireMove
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		board, err := toMetaGrid(w.Board)
		if err != nil {
			return nil, err
		}
		if !w.Turn.IsPlayer() {
			return nil, fmt.Errorf("%w: turn %s", ErrMalformed, w.Turn)
		}
		if w.ActiveGrid == nil || !w.ActiveGrid.Valid() {
			return nil, fmt.Errorf("%w: active grid missing or out of range", ErrMalformed)
		}
		return Move{Board: board, Turn: w.Turn, ActiveGrid: *w.ActiveGrid}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
}

// EncodeMove serialises a validated move request.
func EncodeMove(r MoveRequest) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(wireMoveRequest{Type: TypeMove, Grid: r.Grid, X: r.X, Y: r.Y})
}

func toMetaGrid(rows [][]game.Mark) (game.MetaGrid, error) {
	var b game.MetaGrid
	if len(rows) != len(b) {
		return b, fmt.Errorf("%w: board has %d sub-grids", ErrMalformed, len(rows))
	}
	for i, row := range rows {
		if len(row) != len(b[i]) {
			return b, fmt.Errorf("%w: sub-grid %d has %d cells", ErrMalformed, i, len(row))
		}
		copy(b[i][:], row)
	}
	return b, nil
}
