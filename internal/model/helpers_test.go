package model

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

var pieceLetters = map[byte]PieceType{
	'K': King, 'Q': Queen, 'R': Rook, 'B': Bishop, 'N': Knight, 'P': Pawn,
}

// boardWith builds a board from square -> "wK"/"bP" style codes. Pawns off
// their starting rank are marked as moved.
func boardWith(t *testing.T, pieces map[string]string) *Board {
	t.Helper()
	b := NewEmptyBoard()
	for sq, code := range pieces {
		require.Len(t, code, 2, sq)
		color := White
		if code[0] == 'b' {
			color = Black
		}
		kind, ok := pieceLetters[code[1]]
		require.True(t, ok, code)
		pos := MustSquare(sq)
		pc := NewPiece(kind, color)
		if kind == Pawn {
			pc.HasMoved = !(color == White && pos.Row == 6 || color == Black && pos.Row == 1)
		}
		b.Place(pos, pc)
	}
	return b
}

func squares(ps []Position) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Square())
	}
	sort.Strings(out)
	return out
}

func eventKinds(events []Event) []EventKind {
	kinds := make([]EventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

// play runs from-to pairs such as "e2e4" through Attempt.
func play(t *testing.T, s *GameState, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		_, err := s.Attempt(MustSquare(mv[:2]), MustSquare(mv[2:4]))
		require.NoError(t, err, mv)
	}
}
