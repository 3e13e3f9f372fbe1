package model

import (
	"fmt"
	"strings"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) Valid() bool {
	return c == White || c == Black
}

// Title returns the capitalised color name used in move records.
func (c Color) Title() string {
	return capitalize(string(c))
}

// pawnDirection is the row delta of a forward pawn step. White moves toward row 0.
func (c Color) pawnDirection() int {
	if c == White {
		return -1
	}
	return 1
}

// backRank is the row a pawn of this color promotes on.
func (c Color) backRank() int {
	if c == White {
		return 0
	}
	return 7
}

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

func (p PieceType) Valid() bool {
	switch p {
	case King, Queen, Rook, Bishop, Knight, Pawn:
		return true
	}
	return false
}

// Promotable reports whether a pawn may be promoted to this type.
func (p PieceType) Promotable() bool {
	switch p {
	case Queen, Rook, Bishop, Knight:
		return true
	}
	return false
}

func (p PieceType) Title() string {
	return capitalize(string(p))
}

// ParsePieceType accepts either the lowercase name ("queen") or the title
// form used in move records ("Queen").
func ParsePieceType(s string) (PieceType, bool) {
	p := PieceType(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

type Piece struct {
	Type     PieceType `json:"kind"`
	Color    Color     `json:"color"`
	HasMoved bool      `json:"has_moved"`
}

func NewPiece(t PieceType, c Color) *Piece {
	return &Piece{Type: t, Color: c}
}

func (p *Piece) String() string {
	return fmt.Sprintf("%s %s", p.Color.Title(), p.Type.Title())
}

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) OnBoard() bool {
	return p.Row >= 0 && p.Row < 8 && p.Col >= 0 && p.Col < 8
}

func (p Position) index() int {
	return p.Row*8 + p.Col
}

func (p Position) add(d Position) Position {
	return Position{Row: p.Row + d.Row, Col: p.Col + d.Col}
}

// Square returns the algebraic name of the position, e.g. "e4".
func (p Position) Square() string {
	return fmt.Sprintf("%c%d", p.Col+'a', 8-p.Row)
}

func (p Position) String() string {
	if !p.OnBoard() {
		return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	}
	return p.Square()
}

// ParseSquare converts "a1".."h8" into a board position.
func ParseSquare(s string) (Position, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Position{}, fmt.Errorf("invalid square %q", s)
	}
	return Position{Row: 8 - int(s[1]-'0'), Col: int(s[0] - 'a')}, nil
}

func MustSquare(s string) Position {
	p, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return p
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
