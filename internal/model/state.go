package model

import (
	"fmt"
)

// Phase is the state machine's current input mode.
type Phase string

const (
	PhaseSelecting        Phase = "selecting"
	PhaseSelected         Phase = "selected"
	PhasePromotionPending Phase = "promotion_pending"
	PhaseGameOver         Phase = "game_over"
)

// HistoryDisplayLimit bounds RecentHistory. The full history is kept for saves.
const HistoryDisplayLimit = 10

type PendingPromotion struct {
	Square Position `json:"square"`
	Color  Color    `json:"color"`
}

type CapturedPiece struct {
	Type  PieceType `json:"kind"`
	Color Color     `json:"color"`
}

// CapturedPieces lists, per color, the pieces that color has taken.
type CapturedPieces struct {
	White []CapturedPiece `json:"white"`
	Black []CapturedPiece `json:"black"`
}

func newCapturedPieces() CapturedPieces {
	return CapturedPieces{
		White: make([]CapturedPiece, 0),
		Black: make([]CapturedPiece, 0),
	}
}

func (c *CapturedPieces) add(by Color, piece CapturedPiece) {
	switch by {
	case White:
		c.White = append(c.White, piece)
	case Black:
		c.Black = append(c.Black, piece)
	}
}

func (c CapturedPieces) clone() CapturedPieces {
	return CapturedPieces{
		White: append(make([]CapturedPiece, 0, len(c.White)), c.White...),
		Black: append(make([]CapturedPiece, 0, len(c.Black)), c.Black...),
	}
}

// GameState owns the board and all turn bookkeeping. It is mutated only
// through Select, MoveTo, Click, Attempt and Promote.
type GameState struct {
	board     *Board
	turn      Color
	captured  CapturedPieces
	history   []string
	moveCount int
	gameOver  bool
	winner    Color
	inCheck   bool
	promotion *PendingPromotion
	selected  *Position
	legal     []Position
	lastMove  *LastMove
}

func NewGameState() *GameState {
	return &GameState{
		board:    NewBoard(),
		turn:     White,
		captured: newCapturedPieces(),
		history:  make([]string, 0),
	}
}

// NewGameStateFromBoard starts a game from an arbitrary position with turn to move.
func NewGameStateFromBoard(board *Board, turn Color) (*GameState, error) {
	if err := validatePosition(board, turn); err != nil {
		return nil, err
	}
	s := &GameState{
		board:    board,
		turn:     turn,
		captured: newCapturedPieces(),
		history:  make([]string, 0),
	}
	s.refreshStatus()
	return s, nil
}

func (s *GameState) Phase() Phase {
	switch {
	case s.gameOver:
		return PhaseGameOver
	case s.promotion != nil:
		return PhasePromotionPending
	case s.selected != nil:
		return PhaseSelected
	default:
		return PhaseSelecting
	}
}

// Board returns a copy of the current board.
func (s *GameState) Board() *Board { return s.board.Clone() }

func (s *GameState) Turn() Color    { return s.turn }
func (s *GameState) MoveCount() int { return s.moveCount }
func (s *GameState) GameOver() bool { return s.gameOver }
func (s *GameState) InCheck() bool  { return s.inCheck }

// Winner is empty unless the game ended in checkmate.
func (s *GameState) Winner() Color { return s.winner }

// History is never nil, so a snapshot of a fresh game still carries an
// empty move_history.
func (s *GameState) History() []string {
	return append(make([]string, 0, len(s.history)), s.history...)
}

// RecentHistory returns at most the last HistoryDisplayLimit records.
func (s *GameState) RecentHistory() []string {
	start := len(s.history) - HistoryDisplayLimit
	if start < 0 {
		start = 0
	}
	return append(make([]string, 0, len(s.history)-start), s.history[start:]...)
}

func (s *GameState) Captured() CapturedPieces { return s.captured.clone() }

func (s *GameState) Promotion() *PendingPromotion {
	if s.promotion == nil {
		return nil
	}
	p := *s.promotion
	return &p
}

// Selection returns the selected square and its legal destinations, if any.
func (s *GameState) Selection() (*Position, []Position) {
	if s.selected == nil {
		return nil, nil
	}
	sq := *s.selected
	return &sq, append([]Position(nil), s.legal...)
}

func (s *GameState) LastMove() *LastMove {
	if s.lastMove == nil {
		return nil
	}
	lm := *s.lastMove
	return &lm
}

// LegalMovesFrom answers "where could the piece on pos go" without changing
// the selection. Pieces of the side not to move get an empty set.
func (s *GameState) LegalMovesFrom(pos Position) []Position {
	piece := s.board.At(pos)
	if s.gameOver || s.promotion != nil || piece == nil || piece.Color != s.turn {
		return []Position{}
	}
	return LegalMoves(s.board, pos)
}

// Select chooses the piece on pos for the side to move.
func (s *GameState) Select(pos Position) ([]Event, error) {
	if err := s.acceptingMoves(); err != nil {
		return rejected(err, &pos), err
	}
	piece := s.board.At(pos)
	if piece == nil {
		err := fmt.Errorf("%w: no piece on %s", ErrInvalidSelection, pos)
		return rejected(err, &pos), err
	}
	if piece.Color != s.turn {
		err := fmt.Errorf("%w: %s on %s belongs to %s", ErrInvalidSelection, piece, pos, piece.Color)
		return rejected(err, &pos), err
	}
	s.selected = posPtr(pos)
	s.legal = LegalMoves(s.board, pos)
	return []Event{{
		Kind:   EventSelected,
		Color:  piece.Color,
		Piece:  piece.Type,
		From:   posPtr(pos),
		Detail: fmt.Sprintf("%d legal moves", len(s.legal)),
	}}, nil
}

// Deselect clears the selection, if there is one.
func (s *GameState) Deselect() []Event {
	if s.selected == nil {
		return nil
	}
	from := *s.selected
	s.clearSelection()
	return []Event{{Kind: EventDeselected, Color: s.turn, From: posPtr(from)}}
}

// MoveTo moves the selected piece to dest. A destination outside the legal
// set only clears the selection.
func (s *GameState) MoveTo(dest Position) ([]Event, error) {
	if err := s.acceptingMoves(); err != nil {
		return rejected(err, &dest), err
	}
	if s.selected == nil {
		err := fmt.Errorf("%w: no piece selected", ErrInvalidSelection)
		return rejected(err, &dest), err
	}
	if !containsPosition(s.legal, dest) {
		from := *s.selected
		err := fmt.Errorf("%w: %s-%s", ErrIllegalMove, from, dest)
		return append(rejected(err, &dest), s.Deselect()...), err
	}
	return s.apply(*s.selected, dest), nil
}

// Click is the single-input flow: select when nothing is selected, otherwise
// move to pos when legal and deselect when not.
func (s *GameState) Click(pos Position) ([]Event, error) {
	if s.Phase() != PhaseSelected {
		return s.Select(pos)
	}
	if containsPosition(s.legal, pos) {
		return s.MoveTo(pos)
	}
	return s.Deselect(), nil
}

// Attempt selects from and moves to to in one step.
func (s *GameState) Attempt(from, to Position) ([]Event, error) {
	selected, err := s.Select(from)
	if err != nil {
		return selected, err
	}
	moved, err := s.MoveTo(to)
	return append(selected, moved...), err
}

// Promote resolves a pending promotion with the chosen piece type.
func (s *GameState) Promote(t PieceType) ([]Event, error) {
	if s.gameOver {
		return rejected(ErrGameOver, nil), ErrGameOver
	}
	if s.promotion == nil {
		return rejected(ErrNoPromotionPending, nil), ErrNoPromotionPending
	}
	if !t.Promotable() {
		err := fmt.Errorf("%w: %q", ErrInvalidPromotion, t)
		return rejected(err, &s.promotion.Square), err
	}
	pending := *s.promotion
	s.board.Place(pending.Square, &Piece{Type: t, Color: pending.Color, HasMoved: true})
	s.promotion = nil
	if n := len(s.history); n > 0 {
		s.history[n-1] += "=" + t.Title()
	}
	events := []Event{{
		Kind:  EventPromoted,
		Color: pending.Color,
		Piece: t,
		To:    posPtr(pending.Square),
	}}
	return append(events, s.completeTurn()...), nil
}

func (s *GameState) acceptingMoves() error {
	if s.gameOver {
		return ErrGameOver
	}
	if s.promotion != nil {
		return fmt.Errorf("%w on %s", ErrPromotionPending, s.promotion.Square)
	}
	return nil
}

func (s *GameState) apply(from, to Position) []Event {
	piece := s.board.At(from)
	number := s.moveCount + 1

	captured := s.board.Relocate(from, to)
	piece.HasMoved = true
	s.clearSelection()

	record := fmt.Sprintf("%d. %s %s %s-%s", number, piece.Color.Title(), piece.Type.Title(), from.Square(), to.Square())
	events := []Event{{
		Kind:  EventMoved,
		Color: piece.Color,
		Piece: piece.Type,
		From:  posPtr(from),
		To:    posPtr(to),
	}}
	if captured != nil {
		s.captured.add(piece.Color, CapturedPiece{Type: captured.Type, Color: captured.Color})
		record += "x" + captured.Type.Title()
		events = append(events, Event{
			Kind:   EventCaptured,
			Color:  piece.Color,
			Piece:  captured.Type,
			To:     posPtr(to),
			Detail: captured.String(),
		})
	}
	s.history = append(s.history, record)
	s.lastMove = &LastMove{From: from, To: to}

	if piece.Type == Pawn && to.Row == piece.Color.backRank() {
		s.promotion = &PendingPromotion{Square: to, Color: piece.Color}
		return append(events, Event{
			Kind:  EventPromotionRequired,
			Color: piece.Color,
			Piece: Pawn,
			To:    posPtr(to),
		})
	}
	return append(events, s.completeTurn()...)
}

// completeTurn hands the move to the other side and evaluates check and mate for it.
func (s *GameState) completeTurn() []Event {
	mover := s.turn
	if mover == Black {
		s.moveCount++
	}
	s.turn = mover.Opposite()
	s.refreshStatus()

	switch {
	case s.gameOver:
		return []Event{{
			Kind:   EventCheckmate,
			Color:  s.winner,
			Detail: fmt.Sprintf("%s is checkmated, %s wins", s.turn, s.winner),
		}}
	case s.inCheck:
		return []Event{{Kind: EventCheck, Color: s.turn, Detail: fmt.Sprintf("%s king in check", s.turn)}}
	}
	return nil
}

// refreshStatus recomputes check and checkmate for the side to move.
func (s *GameState) refreshStatus() {
	s.inCheck = IsInCheck(s.board, s.turn)
	if s.inCheck && !HasLegalMove(s.board, s.turn) {
		s.gameOver = true
		s.winner = s.turn.Opposite()
	}
}

func (s *GameState) clearSelection() {
	s.selected = nil
	s.legal = nil
}

func rejected(err error, at *Position) []Event {
	ev := Event{Kind: EventInvalidAttempt, Detail: err.Error()}
	if at != nil && at.OnBoard() {
		ev.To = posPtr(*at)
	}
	return []Event{ev}
}

func containsPosition(list []Position, p Position) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}
