package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"pdswatch/internal/probe"
)

// FileStore keeps the whole history as one JSON document and rewrites it
// atomically (temp file + rename) on every append.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path)}
}

type fileSnapshot struct {
	Records []probe.RunRecord `json:"records"`
}

func (s *FileStore) Load(ctx context.Context) ([]probe.RunRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []probe.RunRecord{}, nil
		}
		return nil, &StorageError{Op: "read history", Err: err}
	}
	var snapshot fileSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		slog.Warn("history file is unparsable, starting from empty history",
			"path", s.path,
			"error", err,
		)
		return []probe.RunRecord{}, nil
	}
	if snapshot.Records == nil {
		return []probe.RunRecord{}, nil
	}
	return snapshot.Records, nil
}

func (s *FileStore) Append(ctx context.Context, record probe.RunRecord) error {
	records, err := s.Load(ctx)
	if err != nil {
		return err
	}
	records = append(records, record)

	data, err := json.MarshalIndent(fileSnapshot{Records: records}, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode history", Err: err}
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "create history directory", Err: err}
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return &StorageError{Op: "write history temp file", Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return &StorageError{Op: fmt.Sprintf("replace %s", s.path), Err: err}
	}
	return nil
}
