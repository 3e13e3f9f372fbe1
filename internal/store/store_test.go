package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/benbeisheim/chess-backend/internal/model"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "saves"), zaptest.NewLogger(t))
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	return s
}

func sampleSnapshot(t *testing.T) *model.Snapshot {
	t.Helper()
	s := model.NewGameState()
	_, err := s.Attempt(model.MustSquare("e2"), model.MustSquare("e4"))
	require.NoError(t, err)
	return s.Snapshot(model.TimeLeft{White: 50, Black: 60})
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	name, err := s.Save(sampleSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, "chess_game_20240309_140507.json", name)

	snap, err := s.Load(name)
	require.NoError(t, err)
	assert.Equal(t, model.Black, snap.CurrentTurn)
	assert.Equal(t, []string{"1. White Pawn e2-e4"}, snap.MoveHistory)
	assert.Equal(t, model.TimeLeft{White: 50, Black: 60}, snap.TimeLeft)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestSaveDoesNotOverwrite(t *testing.T) {
	s := newTestStore(t)

	first, err := s.Save(sampleSnapshot(t))
	require.NoError(t, err)
	second, err := s.Save(sampleSnapshot(t))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, "chess_game_20240309_140507_2.json", second)
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)

	old, err := s.Save(sampleSnapshot(t))
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(s.Dir(), old), past, past))

	s.now = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }
	recent, err := s.Save(sampleSnapshot(t))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o644))

	saves, err := s.List()
	require.NoError(t, err)
	require.Len(t, saves, 2)
	assert.Equal(t, recent, saves[0].Filename)
	assert.Equal(t, old, saves[1].Filename)
	assert.NotEmpty(t, saves[0].Date)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	name, err := s.Save(sampleSnapshot(t))
	require.NoError(t, err)

	deleted, err := s.Delete(name)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(name)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.Load(name)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRejectsNamesOutsideTheDirectory(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"", "../escape.json", "sub/dir.json", ".hidden.json", "game.txt"} {
		_, err := s.Load(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
		_, err = s.Delete(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "broken.json"), []byte(`{"board_state": []}`), 0o644))

	_, err := s.Load("broken.json")
	assert.ErrorIs(t, err, model.ErrMalformedSnapshot)
}
