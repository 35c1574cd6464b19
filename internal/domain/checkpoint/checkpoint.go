// Package checkpoint implements the rollback manager (spec.md §4.11): an
// append-only log of every file, directory, and symlink an install
// creates or modifies, persisted alongside the environment root so a
// failed or interrupted install can be rolled back or resumed.
package checkpoint

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

// FileName is the checkpoint's filename inside an environment root.
const FileName = ".pantry-checkpoint.json"

// ActionKind identifies what kind of on-disk change an Action recorded.
type ActionKind string

const (
	ActionFileCreated    ActionKind = "file_created"
	ActionDirCreated     ActionKind = "dir_created"
	ActionSymlinkCreated ActionKind = "symlink_created"
	ActionFileModified   ActionKind = "file_modified"
)

// Action is one recorded creation or modification.
type Action struct {
	Kind       ActionKind `json:"kind"`
	Path       string     `json:"path"`
	BackupPath string     `json:"backup_path,omitempty"`
}

// Report summarizes a rollback pass.
type Report struct {
	FilesRemoved    int
	DirsRemoved     int
	SymlinksRemoved int
	FilesRestored   int
	Failures        int
}

// document is the on-disk JSON shape.
type document struct {
	InstalledPackages []string `json:"installed_packages"`
	Actions           []Action `json:"actions"`
}

// Checkpoint records creations/modifications for one install invocation
// and can roll them back in LIFO order or resume past them.
type Checkpoint struct {
	fs        ports.FileSystem
	path      string
	backupDir string

	mu                sync.Mutex
	installedPackages map[string]bool
	actions           []Action
}

// New creates an empty checkpoint rooted at envRoot/.pantry-checkpoint.json.
func New(fs ports.FileSystem, envRoot string) *Checkpoint {
	return &Checkpoint{
		fs:                fs,
		path:              filepath.Join(envRoot, FileName),
		backupDir:         filepath.Join(envRoot, ".pantry-checkpoint-backups"),
		installedPackages: make(map[string]bool),
	}
}

// Load reads an existing checkpoint from envRoot, or returns an empty one
// if none is present (a missing checkpoint means nothing to resume).
func Load(fs ports.FileSystem, envRoot string) (*Checkpoint, error) {
	c := New(fs, envRoot)
	if !fs.Exists(c.path) {
		return c, nil
	}

	data, err := fs.ReadFile(c.path)
	if err != nil {
		return nil, lperr.Wrap(lperr.KindDisk, "read checkpoint", err).WithContext(c.path)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, lperr.Wrap(lperr.KindParse, "parse checkpoint", err).WithContext(c.path)
	}

	for _, key := range doc.InstalledPackages {
		c.installedPackages[key] = true
	}
	c.actions = doc.Actions
	return c, nil
}

// RecordFileCreated appends a file-creation action.
func (c *Checkpoint) RecordFileCreated(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, Action{Kind: ActionFileCreated, Path: path})
}

// RecordDirCreated appends a directory-creation action.
func (c *Checkpoint) RecordDirCreated(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, Action{Kind: ActionDirCreated, Path: path})
}

// RecordSymlinkCreated appends a symlink-creation action.
func (c *Checkpoint) RecordSymlinkCreated(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, Action{Kind: ActionSymlinkCreated, Path: path})
}

// RecordModification backs up original's content to a sibling copy under
// the checkpoint's backup directory before path is overwritten, so
// rollback can restore it.
func (c *Checkpoint) RecordModification(path string, original []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fs.MkdirAll(c.backupDir, 0o755); err != nil {
		return lperr.Wrap(lperr.KindDisk, "create backup directory", err).WithContext(c.backupDir)
	}
	backupPath := filepath.Join(c.backupDir, uuid.New().String())
	if err := c.fs.WriteFile(backupPath, original, 0o644); err != nil {
		return lperr.Wrap(lperr.KindDisk, "write backup", err).WithContext(path)
	}

	c.actions = append(c.actions, Action{Kind: ActionFileModified, Path: path, BackupPath: backupPath})
	return nil
}

// MarkInstalled records domain as a fully installed package, so a resumed
// install can skip it.
func (c *Checkpoint) MarkInstalled(domain string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.installedPackages[domain] = true
}

// IsInstalled reports whether domain was already marked installed, either
// in this invocation or one that was checkpointed and resumed.
func (c *Checkpoint) IsInstalled(domain string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.installedPackages[domain]
}

// Save persists the checkpoint to disk via an atomic temp-then-rename,
// matching the lockfile's write discipline.
func (c *Checkpoint) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := document{
		InstalledPackages: sortedKeys(c.installedPackages),
		Actions:           c.actions,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return lperr.Wrap(lperr.KindDisk, "marshal checkpoint", err)
	}

	tmpPath := c.path + ".tmp"
	if err := c.fs.WriteFile(tmpPath, data, 0o644); err != nil {
		return lperr.Wrap(lperr.KindDisk, "write checkpoint", err).WithContext(c.path)
	}
	if err := c.fs.Rename(tmpPath, c.path); err != nil {
		_ = c.fs.Remove(tmpPath)
		return lperr.Wrap(lperr.KindDisk, "rename checkpoint", err).WithContext(c.path)
	}
	return nil
}

// Commit clears the action log and deletes backups after a fully
// successful install, then removes the checkpoint file itself.
func (c *Checkpoint) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.actions = nil
	_ = c.fs.RemoveAll(c.backupDir)
	if c.fs.Exists(c.path) {
		if err := c.fs.Remove(c.path); err != nil {
			return lperr.Wrap(lperr.KindDisk, "remove checkpoint", err).WithContext(c.path)
		}
	}
	return nil
}

// Rollback reverses every recorded action in LIFO order, tolerating
// individual failures so it can report partial results instead of
// aborting (spec §4.11: "tolerating partial failure, continues and
// reports counts").
func (c *Checkpoint) Rollback() Report {
	return c.RollbackFrom(0)
}

// ActionCount returns the number of actions recorded so far. Callers that
// need to unwind only one package's work (spec §7: "unwinds that package
// via C11; other packages continue") record this before starting the
// package and pass it to RollbackFrom on failure.
func (c *Checkpoint) ActionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.actions)
}

// RollbackFrom reverses every action recorded at or after from, in LIFO
// order, then discards them from the log (they no longer exist on disk).
func (c *Checkpoint) RollbackFrom(from int) Report {
	c.mu.Lock()
	if from < 0 || from > len(c.actions) {
		from = 0
	}
	actions := append([]Action(nil), c.actions[from:]...)
	c.mu.Unlock()

	report := c.rollbackActions(actions)

	c.mu.Lock()
	c.actions = c.actions[:from]
	c.mu.Unlock()
	return report
}

func (c *Checkpoint) rollbackActions(actions []Action) Report {
	var report Report
	for i := len(actions) - 1; i >= 0; i-- {
		action := actions[i]
		var err error
		switch action.Kind {
		case ActionFileCreated, ActionSymlinkCreated:
			err = c.fs.Remove(action.Path)
			if err == nil {
				if action.Kind == ActionFileCreated {
					report.FilesRemoved++
				} else {
					report.SymlinksRemoved++
				}
			}
		case ActionDirCreated:
			err = c.fs.Remove(action.Path)
			if err == nil {
				report.DirsRemoved++
			}
		case ActionFileModified:
			var data []byte
			data, err = c.fs.ReadFile(action.BackupPath)
			if err == nil {
				err = c.fs.WriteFile(action.Path, data, 0o644)
			}
			if err == nil {
				report.FilesRestored++
			}
		}
		if err != nil {
			report.Failures++
		}
	}
	return report
}

// Actions returns a copy of the recorded action log, for tests and
// diagnostics.
func (c *Checkpoint) Actions() []Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Action(nil), c.actions...)
}

// InstalledPackages returns the set of domains marked installed.
func (c *Checkpoint) InstalledPackages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.installedPackages)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
