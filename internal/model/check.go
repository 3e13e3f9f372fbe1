package model

// IsInCheck reports whether the king of color stands on a square that some
// opposing piece can reach. A board without that king is never in check.
func IsInCheck(b *Board, color Color) bool {
	kingPos, ok := b.FindKing(color)
	if !ok {
		return false
	}
	return isSquareAttacked(b, color.Opposite(), kingPos)
}

func isSquareAttacked(b *Board, attackingColor Color, target Position) bool {
	attacked := false
	b.Each(func(pos Position, pc *Piece) {
		if attacked || pc.Color != attackingColor {
			return
		}
		for _, dest := range PseudoLegalMoves(b, pc, pos) {
			if dest == target {
				attacked = true
				return
			}
		}
	})
	return attacked
}

// FilterLegal keeps the candidate destinations for the piece on from that do
// not leave the king of color in check. Each candidate is tried on the board
// itself and undone before the next one, so callers must hold the board
// exclusively for the duration of the call. Destinations holding a king are
// never legal.
func FilterLegal(b *Board, color Color, from Position, candidates []Position) []Position {
	legal := []Position{}
	if b.At(from) == nil {
		return legal
	}
	for _, to := range candidates {
		if target := b.At(to); target != nil && target.Type == King {
			continue
		}
		if leavesKingSafe(b, color, from, to) {
			legal = append(legal, to)
		}
	}
	return legal
}

func leavesKingSafe(b *Board, color Color, from, to Position) bool {
	sim := b.simulate(from, to)
	defer sim.restore()
	return !IsInCheck(b, color)
}

// LegalMoves returns the legal destinations of the piece on from.
func LegalMoves(b *Board, from Position) []Position {
	piece := b.At(from)
	if piece == nil {
		return []Position{}
	}
	return FilterLegal(b, piece.Color, from, PseudoLegalMoves(b, piece, from))
}

// HasLegalMove reports whether any piece of color has a legal destination.
func HasLegalMove(b *Board, color Color) bool {
	var owned []Position
	b.Each(func(pos Position, pc *Piece) {
		if pc.Color == color {
			owned = append(owned, pos)
		}
	})
	for _, pos := range owned {
		if len(LegalMoves(b, pos)) > 0 {
			return true
		}
	}
	return false
}

// IsCheckmate is true when color is in check and has no legal move.
// A side with no legal move that is not in check is not reported here.
func IsCheckmate(b *Board, color Color) bool {
	if !IsInCheck(b, color) {
		return false
	}
	return !HasLegalMove(b, color)
}

// simulation holds the two cells touched by a trial move.
type simulation struct {
	board     *Board
	from, to  Position
	fromPiece *Piece
	toPiece   *Piece
}

func (b *Board) simulate(from, to Position) *simulation {
	sim := &simulation{
		board:     b,
		from:      from,
		to:        to,
		fromPiece: b.At(from),
		toPiece:   b.At(to),
	}
	b.Relocate(from, to)
	return sim
}

func (s *simulation) restore() {
	s.board.Place(s.from, s.fromPiece)
	s.board.Place(s.to, s.toPiece)
}
