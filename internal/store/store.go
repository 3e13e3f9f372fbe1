// Package store keeps saved games as JSON files in one directory.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/benbeisheim/chess-backend/internal/model"
	"go.uber.org/zap"
)

const (
	filePrefix = "chess_game_"
	fileExt    = ".json"
	dateLayout = "2006-01-02 15:04:05"
)

var (
	ErrInvalidName = errors.New("invalid save name")
	ErrNotFound    = errors.New("save not found")
)

type SavedGame struct {
	Filename string    `json:"filename"`
	Date     string    `json:"date"`
	ModTime  time.Time `json:"-"`
}

type FileStore struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// New creates dir when it does not exist yet.
func New(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{dir: dir, logger: logger, now: time.Now}, nil
}

func (s *FileStore) Dir() string { return s.dir }

// Save writes snap under a timestamped name and returns that name.
func (s *FileStore) Save(snap *model.Snapshot) (string, error) {
	data, err := snap.Encode()
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	base := filePrefix + s.now().Format("20060102_150405")
	name := base + fileExt
	for n := 2; s.exists(name); n++ {
		name = fmt.Sprintf("%s_%d%s", base, n, fileExt)
	}

	tmp, err := os.CreateTemp(s.dir, ".save-*.tmp")
	if err != nil {
		return "", fmt.Errorf("save game: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("save game: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("save game: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("save game: %w", err)
	}

	s.logger.Info("game saved", zap.String("filename", name))
	return name, nil
}

// Load reads and decodes a save. Decoding failures wrap model.ErrMalformedSnapshot.
func (s *FileStore) Load(name string) (*model.Snapshot, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	snap, err := model.DecodeSnapshot(data)
	if err != nil {
		s.logger.Warn("rejected save file", zap.String("filename", name), zap.Error(err))
		return nil, err
	}
	s.logger.Info("game loaded", zap.String("filename", name))
	return snap, nil
}

// List returns the saves newest first.
func (s *FileStore) List() ([]SavedGame, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	saves := make([]SavedGame, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		saves = append(saves, SavedGame{
			Filename: entry.Name(),
			Date:     info.ModTime().Format(dateLayout),
			ModTime:  info.ModTime(),
		})
	}
	sort.SliceStable(saves, func(i, j int) bool {
		if saves[i].ModTime.Equal(saves[j].ModTime) {
			return saves[i].Filename > saves[j].Filename
		}
		return saves[i].ModTime.After(saves[j].ModTime)
	})
	return saves, nil
}

// Delete removes a save and reports whether it existed.
func (s *FileStore) Delete(name string) (bool, error) {
	path, err := s.path(name)
	if err != nil {
		return false, err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete save: %w", err)
	}
	s.logger.Info("deleted save file", zap.String("filename", name))
	return true, nil
}

func (s *FileStore) exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}

// path keeps names inside the save directory.
func (s *FileStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}
