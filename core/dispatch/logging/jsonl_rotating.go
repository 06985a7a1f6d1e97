package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kilianp07/resq112/core/model"
)

// RotatingJSONLStore stores audit entries in a JSONL file with automatic
// size/age based rotation.
type RotatingJSONLStore struct {
	logger *lumberjack.Logger
	path   string
}

// NewRotatingJSONLStore creates a store with rotation options in megabytes
// and days.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &RotatingJSONLStore{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		},
		path: path,
	}, nil
}

// Append writes the entry and triggers rotation if needed.
func (s *RotatingJSONLStore) Append(ctx context.Context, entry model.DispatchLogEntry) error {
	return json.NewEncoder(s.logger).Encode(entry)
}

// Query reads all log files including rotated ones.
func (s *RotatingJSONLStore) Query(ctx context.Context, q Query) ([]model.DispatchLogEntry, error) {
	files, err := filepath.Glob(s.path + "*")
	if err != nil {
		return nil, err
	}
	var res []model.DispatchLogEntry
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var e model.DispatchLogEntry
			if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
				continue
			}
			if q.matches(e) {
				res = append(res, e)
			}
		}
		_ = f.Close()
	}
	return res, nil
}

// Close closes the underlying writer.
func (s *RotatingJSONLStore) Close() error { return s.logger.Close() }
