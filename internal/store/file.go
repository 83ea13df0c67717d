package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gambit/internal/logging"
	"gambit/pkg/goap"
)

// SaveFile writes a history snapshot to a JSON file, creating parent
// directories as needed. The write goes through a temp file and rename so a
// crash never leaves a torn snapshot behind.
func SaveFile(path string, h *goap.ActionHistory) error {
	data, err := EncodeJSON(h)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadFile reads and validates a snapshot file.
func LoadFile(path string) (*goap.ActionHistory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return DecodeJSON(data)
}

// LoadFileOrDefault converts any load failure into an empty history with a
// warning. A missing file is the normal first-run case and logs at debug.
func LoadFileOrDefault(path string) *goap.ActionHistory {
	h, err := LoadFile(path)
	if err == nil {
		return h
	}
	if errors.Is(err, fs.ErrNotExist) {
		logging.New("store").Debug("no history snapshot", "path", path)
	} else {
		logging.New("store").Warn("history snapshot unusable, starting empty", "path", path, "err", err)
	}
	return goap.NewActionHistory()
}
