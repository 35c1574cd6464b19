package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

// ErrLockSnapshotNotFound is returned by Rollback when given an ID with no
// matching snapshot on disk.
var ErrLockSnapshotNotFound = errors.New("launchpad: lock snapshot not found")

// lockSnapshotStore captures pantry.lock's content immediately before an
// install overwrites it, so a single Rollback call can put it back. It only
// ever snapshots one file per call: the project's own lockfile.
type lockSnapshotStore struct {
	fs  ports.FileSystem
	dir string
}

func newLockSnapshotStore(fs ports.FileSystem, dir string) *lockSnapshotStore {
	return &lockSnapshotStore{fs: fs, dir: dir}
}

// lockSnapshot is the on-disk shape of one captured lockfile.
type lockSnapshot struct {
	Path    string `json:"path"`
	Content []byte `json:"content"`
}

// snapshot saves lockPath's current content under a new ID and returns it.
// Returns "" if lockPath does not exist yet, since there is nothing to roll
// back to.
func (s *lockSnapshotStore) snapshot(lockPath string) (string, error) {
	if !s.fs.Exists(lockPath) {
		return "", nil
	}
	content, err := s.fs.ReadFile(lockPath)
	if err != nil {
		return "", lperr.Wrap(lperr.KindDisk, "read lockfile for snapshot", err).WithContext(lockPath)
	}

	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return "", lperr.Wrap(lperr.KindDisk, "create lock snapshot directory", err).WithContext(s.dir)
	}

	id := uuid.New().String()
	data, err := json.Marshal(lockSnapshot{Path: lockPath, Content: content})
	if err != nil {
		return "", lperr.Wrap(lperr.KindDisk, "marshal lock snapshot", err)
	}
	if err := s.fs.WriteFile(s.path(id), data, 0o600); err != nil {
		return "", lperr.Wrap(lperr.KindDisk, "write lock snapshot", err).WithContext(s.path(id))
	}
	return id, nil
}

// restore writes id's captured content back to the path it was captured
// from, undoing whatever has since been written there.
func (s *lockSnapshotStore) restore(id string) error {
	if !s.fs.Exists(s.path(id)) {
		return fmt.Errorf("%w: %s", ErrLockSnapshotNotFound, id)
	}
	data, err := s.fs.ReadFile(s.path(id))
	if err != nil {
		return lperr.Wrap(lperr.KindDisk, "read lock snapshot", err).WithContext(id)
	}

	var snap lockSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return lperr.Wrap(lperr.KindParse, "parse lock snapshot", err).WithContext(id)
	}

	if err := s.fs.MkdirAll(filepath.Dir(snap.Path), 0o700); err != nil {
		return lperr.Wrap(lperr.KindDisk, "create lockfile directory", err).WithContext(snap.Path)
	}
	return s.fs.WriteFile(snap.Path, snap.Content, 0o600)
}

func (s *lockSnapshotStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
