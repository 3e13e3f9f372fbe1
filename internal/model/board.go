package model

// Board is the 8x8 grid, stored as 64 cells indexed row*8+col.
// Row 0 is rank 8 and col 0 is file a.
type Board struct {
	cells [64]*Piece
}

var backRankOrder = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func NewEmptyBoard() *Board {
	return &Board{}
}

// NewBoard returns the standard opening arrangement.
func NewBoard() *Board {
	board := &Board{}
	for col, t := range backRankOrder {
		board.cells[Position{Row: 0, Col: col}.index()] = NewPiece(t, Black)
		board.cells[Position{Row: 1, Col: col}.index()] = NewPiece(Pawn, Black)
		board.cells[Position{Row: 6, Col: col}.index()] = NewPiece(Pawn, White)
		board.cells[Position{Row: 7, Col: col}.index()] = NewPiece(t, White)
	}
	return board
}

func (b *Board) At(pos Position) *Piece {
	if !pos.OnBoard() {
		return nil
	}
	return b.cells[pos.index()]
}

// Place puts piece on pos, replacing whatever was there.
func (b *Board) Place(pos Position, piece *Piece) {
	if !pos.OnBoard() {
		return
	}
	b.cells[pos.index()] = piece
}

// Remove empties pos and returns the piece that was on it.
func (b *Board) Remove(pos Position) *Piece {
	if !pos.OnBoard() {
		return nil
	}
	piece := b.cells[pos.index()]
	b.cells[pos.index()] = nil
	return piece
}

// Relocate moves the piece on from to to and returns the piece it displaced, if any.
func (b *Board) Relocate(from, to Position) *Piece {
	if !from.OnBoard() || !to.OnBoard() || from == to {
		return nil
	}
	captured := b.cells[to.index()]
	b.cells[to.index()] = b.cells[from.index()]
	b.cells[from.index()] = nil
	return captured
}

// FindKing scans for the king of color.
func (b *Board) FindKing(color Color) (Position, bool) {
	for idx, pc := range b.cells {
		if pc != nil && pc.Color == color && pc.Type == King {
			return Position{Row: idx / 8, Col: idx % 8}, true
		}
	}
	return Position{}, false
}

// Each calls fn for every occupied square in row-major order.
func (b *Board) Each(fn func(pos Position, piece *Piece)) {
	for idx, pc := range b.cells {
		if pc != nil {
			fn(Position{Row: idx / 8, Col: idx % 8}, pc)
		}
	}
}

func (b *Board) count(color Color, t PieceType) int {
	n := 0
	b.Each(func(_ Position, pc *Piece) {
		if pc.Color == color && pc.Type == t {
			n++
		}
	})
	return n
}

// Clone deep-copies the board, pieces included.
func (b *Board) Clone() *Board {
	out := &Board{}
	for idx, pc := range b.cells {
		if pc != nil {
			cp := *pc
			out.cells[idx] = &cp
		}
	}
	return out
}

// Equal compares piece kind, color and has_moved per cell.
func (b *Board) Equal(other *Board) bool {
	if other == nil {
		return false
	}
	for idx := range b.cells {
		a, o := b.cells[idx], other.cells[idx]
		if (a == nil) != (o == nil) {
			return false
		}
		if a != nil && *a != *o {
			return false
		}
	}
	return true
}

// Grid returns the board as rows of cells, row 0 first.
func (b *Board) Grid() [8][8]*Piece {
	var grid [8][8]*Piece
	for idx, pc := range b.cells {
		grid[idx/8][idx%8] = pc
	}
	return grid
}
