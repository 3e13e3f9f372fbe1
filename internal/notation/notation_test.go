package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benbeisheim/chess-backend/internal/model"
)

func TestParseFENStartPosition(t *testing.T) {
	board, turn, err := ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)
	assert.Equal(t, model.White, turn)
	assert.True(t, board.Equal(model.NewBoard()))
}

func TestParseFENMarksAdvancedPawns(t *testing.T) {
	board, turn, err := ParseFEN("rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2")
	require.NoError(t, err)
	assert.Equal(t, model.White, turn)

	e4 := board.At(model.MustSquare("e4"))
	require.NotNil(t, e4)
	assert.Equal(t, model.Pawn, e4.Type)
	assert.True(t, e4.HasMoved)

	d2 := board.At(model.MustSquare("d2"))
	require.NotNil(t, d2)
	assert.False(t, d2.HasMoved)

	e5 := board.At(model.MustSquare("e5"))
	require.NotNil(t, e5)
	assert.Equal(t, model.Black, e5.Color)
}

func TestParseFENRejectsGarbage(t *testing.T) {
	_, _, err := ParseFEN("not a position")
	assert.ErrorIs(t, err, ErrInvalidFEN)
}

func TestRecordToUCI(t *testing.T) {
	tests := []struct {
		record string
		want   string
	}{
		{"1. White Pawn e2-e4", "e2e4"},
		{"4. Black Queen d8-h4xPawn", "d8h4"},
		{"12. White Pawn b7-a8xRook=Knight", "b7a8n"},
		{"9. Black Pawn c2-c1=Queen", "c2c1q"},
	}
	for _, tt := range tests {
		got, err := RecordToUCI(tt.record)
		require.NoError(t, err, tt.record)
		assert.Equal(t, tt.want, got)
	}

	_, err := RecordToUCI("e4")
	assert.ErrorIs(t, err, ErrUnknownRecord)
}

func TestOpeningFromHistory(t *testing.T) {
	op, ok := OpeningFromHistory([]string{
		"1. White Pawn e2-e4",
		"1. Black Pawn c7-c5",
	})
	require.True(t, ok)
	assert.Equal(t, "B20", op.Code)
	assert.Contains(t, op.Title, "Sicilian")

	_, ok = OpeningFromHistory([]string{"1. White Pawn e2-e5"})
	assert.False(t, ok)
}
