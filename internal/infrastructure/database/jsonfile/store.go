package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"duesreminder/internal/domain/entity"
	"duesreminder/internal/domain/repository"
	appErrors "duesreminder/internal/pkg/errors"
)

type store struct {
	path string
}

// NewStore creates a MembershipStore persisting the snapshot as one JSON
// document keyed by member id.
func NewStore(path string) repository.MembershipStore {
	return &store{path: path}
}

// Load reads the snapshot file. A missing file is an empty snapshot.
func (s *store) Load(ctx context.Context) (entity.Snapshot, error) {
	_ = ctx
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entity.Snapshot{}, nil
	}
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("%w: read %s: %v", appErrors.ErrStorageUnavailable, s.path, err)
	}

	snapshot := entity.Snapshot{}
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return entity.Snapshot{}, fmt.Errorf("%w: decode %s: %v", appErrors.ErrStorageUnavailable, s.path, err)
	}
	for id, m := range snapshot {
		if m == nil {
			delete(snapshot, id)
			continue
		}
		m.MemberID = id
	}
	if bad := snapshot.Invalid(); len(bad) > 0 {
		return snapshot, fmt.Errorf("%w: members %v in %s", appErrors.ErrInvalidRecord, bad, s.path)
	}
	return snapshot, nil
}

// Save writes the snapshot to a temporary file and renames it over the
// previous one, so readers see either the old or the new document.
func (s *store) Save(ctx context.Context, snapshot entity.Snapshot) error {
	_ = ctx
	if snapshot == nil {
		snapshot = entity.Snapshot{}
	}
	data, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", appErrors.ErrDatabaseOperation, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", appErrors.ErrDatabaseOperation, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", appErrors.ErrDatabaseOperation, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", appErrors.ErrDatabaseOperation, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", appErrors.ErrDatabaseOperation, tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w: replace %s: %v", appErrors.ErrDatabaseOperation, s.path, err)
	}
	return nil
}

func (s *store) Close() error { return nil }
