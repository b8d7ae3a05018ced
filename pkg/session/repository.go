package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/justpassingByte/cyber2025-desktop-sub001/pkg/models"
)

// Snapshot is the persisted shape of the store: the active customer or null.
type Snapshot struct {
	User *models.Customer `json:"user"`
}

// Repository round-trips the store snapshot. Save runs on every mutation and
// Load once at startup, so a renderer reload does not lose the session.
type Repository interface {
	Load() (Snapshot, error)
	Save(snapshot Snapshot) error
}

// FileRepository persists the snapshot as one JSON document. The file is
// session-scoped working state, not durable storage.
type FileRepository struct {
	path string
}

// NewFileRepository creates a FileRepository writing to path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Make sure we conform to the interface
var _ Repository = (*FileRepository)(nil)

// Load reads the snapshot. A missing file is an empty snapshot, not an error.
func (r *FileRepository) Load() (Snapshot, error) {
	blob, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse session file: %w", err)
	}
	return snap, nil
}

// Save writes the snapshot atomically enough for a single-writer process.
func (r *FileRepository) Save(snapshot Snapshot) error {
	blob, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(r.path, blob, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
