package model

var (
	rookDirs   = []Position{{Row: 0, Col: 1}, {Row: 0, Col: -1}, {Row: 1, Col: 0}, {Row: -1, Col: 0}}
	bishopDirs = []Position{{Row: 1, Col: 1}, {Row: 1, Col: -1}, {Row: -1, Col: 1}, {Row: -1, Col: -1}}
	knightDirs = []Position{{Row: -2, Col: -1}, {Row: -2, Col: 1}, {Row: 2, Col: -1}, {Row: 2, Col: 1}, {Row: -1, Col: -2}, {Row: 1, Col: -2}, {Row: -1, Col: 2}, {Row: 1, Col: 2}}
	kingDirs   = []Position{{Row: -1, Col: -1}, {Row: -1, Col: 0}, {Row: -1, Col: 1}, {Row: 0, Col: -1}, {Row: 0, Col: 1}, {Row: 1, Col: -1}, {Row: 1, Col: 0}, {Row: 1, Col: 1}}
)

// PseudoLegalMoves lists the destinations piece can reach from from by its
// movement pattern and board occupancy alone, without regard to king safety.
func PseudoLegalMoves(b *Board, piece *Piece, from Position) []Position {
	if piece == nil || !from.OnBoard() {
		return nil
	}
	switch piece.Type {
	case Pawn:
		return pawnMoves(b, piece, from)
	case Knight:
		return stepMoves(b, piece, from, knightDirs)
	case Bishop:
		return diagonalMoves(b, piece, from)
	case Rook:
		return straightMoves(b, piece, from)
	case Queen:
		return append(straightMoves(b, piece, from), diagonalMoves(b, piece, from)...)
	case King:
		return stepMoves(b, piece, from, kingDirs)
	default:
		return nil
	}
}

func pawnMoves(b *Board, piece *Piece, from Position) []Position {
	moves := []Position{}
	dir := piece.Color.pawnDirection()

	// forward 1, then 2 if the pawn has never moved
	one := Position{Row: from.Row + dir, Col: from.Col}
	if one.OnBoard() && b.At(one) == nil {
		moves = append(moves, one)
		two := Position{Row: from.Row + 2*dir, Col: from.Col}
		if !piece.HasMoved && two.OnBoard() && b.At(two) == nil {
			moves = append(moves, two)
		}
	}

	// diagonal captures
	for _, dc := range []int{-1, 1} {
		target := Position{Row: from.Row + dir, Col: from.Col + dc}
		if !target.OnBoard() {
			continue
		}
		if occupant := b.At(target); occupant != nil && occupant.Color != piece.Color {
			moves = append(moves, target)
		}
	}
	return moves
}

func stepMoves(b *Board, piece *Piece, from Position, dirs []Position) []Position {
	moves := []Position{}
	for _, dir := range dirs {
		target := from.add(dir)
		if isEmptyOrEnemy(b, piece, target) {
			moves = append(moves, target)
		}
	}
	return moves
}

func straightMoves(b *Board, piece *Piece, from Position) []Position {
	return castRays(b, piece, from, rookDirs)
}

func diagonalMoves(b *Board, piece *Piece, from Position) []Position {
	return castRays(b, piece, from, bishopDirs)
}

// castRays walks each direction until the edge or the first occupied square.
// An enemy on that square is included, a friendly piece is not.
func castRays(b *Board, piece *Piece, from Position, dirs []Position) []Position {
	moves := []Position{}
	for _, dir := range dirs {
		target := from.add(dir)
		for target.OnBoard() {
			occupant := b.At(target)
			if occupant == nil {
				moves = append(moves, target)
			} else {
				if occupant.Color != piece.Color {
					moves = append(moves, target)
				}
				break
			}
			target = target.add(dir)
		}
	}
	return moves
}

func isEmptyOrEnemy(b *Board, piece *Piece, pos Position) bool {
	if !pos.OnBoard() {
		return false
	}
	occupant := b.At(pos)
	return occupant == nil || occupant.Color != piece.Color
}
