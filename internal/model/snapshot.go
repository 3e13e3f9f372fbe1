package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TimeLeft is owned by the clocks; the rules only carry it through saves.
type TimeLeft struct {
	White float64 `json:"white"`
	Black float64 `json:"black"`
}

type PieceRecord struct {
	Kind     PieceType `json:"kind"`
	Color    Color     `json:"color"`
	HasMoved bool      `json:"has_moved"`
}

// Cell is one board square in a snapshot. Empty squares encode as null;
// an empty string is accepted on input as well.
type Cell struct {
	Piece *PieceRecord
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if c.Piece == nil {
		return []byte("null"), nil
	}
	return json.Marshal(c.Piece)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		c.Piece = nil
		return nil
	}
	var raw struct {
		Kind     *string `json:"kind"`
		Legacy   *string `json:"position"`
		Color    *string `json:"color"`
		HasMoved *bool   `json:"has_moved"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	if raw.Kind == nil {
		raw.Kind = raw.Legacy
	}
	if raw.Kind == nil || raw.Color == nil || raw.HasMoved == nil {
		return fmt.Errorf("piece record needs kind, color and has_moved: %s", trimmed)
	}
	kind := PieceType(*raw.Kind)
	if !kind.Valid() {
		return fmt.Errorf("unknown piece kind %q", *raw.Kind)
	}
	color := Color(*raw.Color)
	if !color.Valid() {
		return fmt.Errorf("unknown piece color %q", *raw.Color)
	}
	c.Piece = &PieceRecord{Kind: kind, Color: color, HasMoved: *raw.HasMoved}
	return nil
}

func (c *CapturedPiece) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind   *string `json:"kind"`
		Legacy *string `json:"position"`
		Color  *string `json:"color"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Kind == nil {
		raw.Kind = raw.Legacy
	}
	if raw.Kind == nil || raw.Color == nil {
		return fmt.Errorf("captured record needs kind and color: %s", data)
	}
	c.Type = PieceType(*raw.Kind)
	c.Color = Color(*raw.Color)
	if !c.Type.Valid() || !c.Color.Valid() {
		return fmt.Errorf("unknown captured piece %q %q", *raw.Color, *raw.Kind)
	}
	return nil
}

// Snapshot is the persisted form of a game.
type Snapshot struct {
	BoardState     [8][8]Cell     `json:"board_state"`
	CurrentTurn    Color          `json:"current_turn"`
	TimeLeft       TimeLeft       `json:"time_left"`
	MoveHistory    []string       `json:"move_history"`
	CapturedPieces CapturedPieces `json:"captured_pieces"`
	MoveCount      int            `json:"move_count"`
	GameOver       bool           `json:"game_over"`
}

// snapshotWire detects missing keys on decode.
type snapshotWire struct {
	BoardState     *[][]Cell       `json:"board_state"`
	CurrentTurn    *Color          `json:"current_turn"`
	TimeLeft       *TimeLeft       `json:"time_left"`
	MoveHistory    *[]string       `json:"move_history"`
	CapturedPieces *CapturedPieces `json:"captured_pieces"`
	MoveCount      *int            `json:"move_count"`
	GameOver       *bool           `json:"game_over"`
}

// Snapshot captures everything needed to rebuild the game.
func (s *GameState) Snapshot(timeLeft TimeLeft) *Snapshot {
	snap := &Snapshot{
		CurrentTurn:    s.turn,
		TimeLeft:       timeLeft,
		MoveHistory:    s.History(),
		CapturedPieces: s.captured.clone(),
		MoveCount:      s.moveCount,
		GameOver:       s.gameOver,
	}
	s.board.Each(func(pos Position, pc *Piece) {
		snap.BoardState[pos.Row][pos.Col] = Cell{Piece: &PieceRecord{Kind: pc.Type, Color: pc.Color, HasMoved: pc.HasMoved}}
	})
	return snap
}

// Encode writes the snapshot as indented JSON.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.MarshalIndent(s, "", "    ")
}

// DecodeSnapshot parses and structurally validates a persisted game. Any
// missing field or unknown value fails the whole decode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var wire snapshotWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	switch {
	case wire.BoardState == nil:
		return nil, fmt.Errorf("%w: missing board_state", ErrMalformedSnapshot)
	case wire.CurrentTurn == nil:
		return nil, fmt.Errorf("%w: missing current_turn", ErrMalformedSnapshot)
	case wire.TimeLeft == nil:
		return nil, fmt.Errorf("%w: missing time_left", ErrMalformedSnapshot)
	case wire.MoveHistory == nil:
		return nil, fmt.Errorf("%w: missing move_history", ErrMalformedSnapshot)
	case wire.CapturedPieces == nil:
		return nil, fmt.Errorf("%w: missing captured_pieces", ErrMalformedSnapshot)
	case wire.MoveCount == nil:
		return nil, fmt.Errorf("%w: missing move_count", ErrMalformedSnapshot)
	case wire.GameOver == nil:
		return nil, fmt.Errorf("%w: missing game_over", ErrMalformedSnapshot)
	}

	rows := *wire.BoardState
	if len(rows) != 8 {
		return nil, fmt.Errorf("%w: board_state has %d rows", ErrMalformedSnapshot, len(rows))
	}
	snap := &Snapshot{
		CurrentTurn:    *wire.CurrentTurn,
		TimeLeft:       *wire.TimeLeft,
		MoveHistory:    *wire.MoveHistory,
		CapturedPieces: *wire.CapturedPieces,
		MoveCount:      *wire.MoveCount,
		GameOver:       *wire.GameOver,
	}
	for r, row := range rows {
		if len(row) != 8 {
			return nil, fmt.Errorf("%w: board_state row %d has %d cells", ErrMalformedSnapshot, r, len(row))
		}
		copy(snap.BoardState[r][:], row)
	}
	if !snap.CurrentTurn.Valid() {
		return nil, fmt.Errorf("%w: current_turn %q", ErrMalformedSnapshot, snap.CurrentTurn)
	}
	if snap.MoveCount < 0 {
		return nil, fmt.Errorf("%w: negative move_count", ErrMalformedSnapshot)
	}
	if snap.CapturedPieces.White == nil {
		snap.CapturedPieces.White = make([]CapturedPiece, 0)
	}
	if snap.CapturedPieces.Black == nil {
		snap.CapturedPieces.Black = make([]CapturedPiece, 0)
	}
	return snap, nil
}

// Restore rebuilds a GameState. The receiver is not modified and nothing is
// returned unless the whole snapshot is consistent.
func (s *Snapshot) Restore() (*GameState, error) {
	if !s.CurrentTurn.Valid() {
		return nil, fmt.Errorf("%w: current_turn %q", ErrMalformedSnapshot, s.CurrentTurn)
	}
	board := NewEmptyBoard()
	for r := range s.BoardState {
		for c, cell := range s.BoardState[r] {
			if cell.Piece == nil {
				continue
			}
			if !cell.Piece.Kind.Valid() || !cell.Piece.Color.Valid() {
				return nil, fmt.Errorf("%w: bad piece at %s", ErrMalformedSnapshot, Position{Row: r, Col: c})
			}
			board.Place(Position{Row: r, Col: c}, &Piece{
				Type:     cell.Piece.Kind,
				Color:    cell.Piece.Color,
				HasMoved: cell.Piece.HasMoved,
			})
		}
	}

	promotion, err := findPendingPromotion(board, s.CurrentTurn)
	if err != nil {
		return nil, err
	}
	if err := validateKings(board); err != nil {
		return nil, err
	}
	if promotion == nil && IsInCheck(board, s.CurrentTurn.Opposite()) {
		return nil, fmt.Errorf("%w: %s is in check but not to move", ErrMalformedSnapshot, s.CurrentTurn.Opposite())
	}

	state := &GameState{
		board:     board,
		turn:      s.CurrentTurn,
		captured:  s.CapturedPieces.clone(),
		history:   append(make([]string, 0, len(s.MoveHistory)), s.MoveHistory...),
		moveCount: s.MoveCount,
		gameOver:  s.GameOver,
		promotion: promotion,
	}
	state.inCheck = IsInCheck(board, state.turn)
	if state.gameOver {
		if IsCheckmate(board, state.turn) {
			state.winner = state.turn.Opposite()
		}
	} else if promotion == nil {
		state.refreshStatus()
	}
	return state, nil
}

func validatePosition(board *Board, turn Color) error {
	if !turn.Valid() {
		return fmt.Errorf("%w: side to move %q", ErrMalformedSnapshot, turn)
	}
	if err := validateKings(board); err != nil {
		return err
	}
	for _, row := range []int{0, 7} {
		for col := 0; col < 8; col++ {
			if pc := board.At(Position{Row: row, Col: col}); pc != nil && pc.Type == Pawn {
				return fmt.Errorf("%w: pawn on %s", ErrMalformedSnapshot, Position{Row: row, Col: col})
			}
		}
	}
	if IsInCheck(board, turn.Opposite()) {
		return fmt.Errorf("%w: %s is in check but not to move", ErrMalformedSnapshot, turn.Opposite())
	}
	return nil
}

func validateKings(board *Board) error {
	for _, color := range []Color{White, Black} {
		if n := board.count(color, King); n != 1 {
			return fmt.Errorf("%w: %s has %d kings", ErrMalformedSnapshot, color, n)
		}
	}
	return nil
}

// findPendingPromotion accepts at most one pawn of the side to move standing
// on its last rank, which is a promotion saved before the choice was made.
// Any other pawn on row 0 or 7 is inconsistent.
func findPendingPromotion(board *Board, turn Color) (*PendingPromotion, error) {
	var pending *PendingPromotion
	for _, row := range []int{0, 7} {
		for col := 0; col < 8; col++ {
			pos := Position{Row: row, Col: col}
			pc := board.At(pos)
			if pc == nil || pc.Type != Pawn {
				continue
			}
			if pc.Color != turn || row != turn.backRank() || pending != nil {
				return nil, fmt.Errorf("%w: pawn on %s", ErrMalformedSnapshot, pos)
			}
			pending = &PendingPromotion{Square: pos, Color: turn}
		}
	}
	return pending, nil
}
