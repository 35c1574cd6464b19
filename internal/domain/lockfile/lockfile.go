// Package lockfile implements the pantry.lock store: read/write,
// drift detection against installed packages, and locked-entry lookups,
// per spec.md §4.4.
package lockfile

import (
	"encoding/json"
	"fmt"

	"github.com/launchpad-sh/launchpad/internal/domain/resolve"
	"github.com/launchpad-sh/launchpad/internal/domain/version"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

const currentVersion = "1.0"

// Entry is one locked package (spec §3: "Lockfile entry").
type Entry struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Resolved     string            `json:"resolved"`
	Integrity    string            `json:"integrity,omitempty"`
	Dev          bool              `json:"dev,omitempty"`
	Optional     bool              `json:"optional,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Key returns the canonical "name@version" lockfile key.
func (e Entry) Key() string {
	return fmt.Sprintf("%s@%s", e.Name, e.Version)
}

// document is the on-disk JSON shape (spec §4.4).
type document struct {
	Version  string           `json:"version"`
	Packages map[string]Entry `json:"packages"`
}

// Lockfile is the in-memory, mutable representation of pantry.lock.
type Lockfile struct {
	path     string
	packages map[string]Entry
}

// New creates an empty lockfile bound to path (not yet written).
func New(path string) *Lockfile {
	return &Lockfile{path: path, packages: make(map[string]Entry)}
}

// Load reads and parses a lockfile. A missing file is not an error: it
// returns an empty lockfile, since an absent pantry.lock simply means no
// package has been locked yet.
func Load(fs ports.FileSystem, path string) (*Lockfile, error) {
	if !fs.Exists(path) {
		return New(path), nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: read %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", path, err)
	}

	if doc.Packages == nil {
		doc.Packages = make(map[string]Entry)
	}
	migrate(&doc)

	return &Lockfile{path: path, packages: doc.Packages}, nil
}

// migrate upgrades older lockfile shapes in place. v0 lockfiles (pre-1.0,
// identified by an empty Version field) had no "version" key at all;
// their packages are otherwise structurally identical, so migration is
// just stamping the version.
func migrate(doc *document) {
	if doc.Version == "" {
		doc.Version = currentVersion
	}
}

// Write serializes the lockfile atomically: write to a temp path, then
// rename over the destination (spec §4.4).
func (l *Lockfile) Write(fs ports.FileSystem) error {
	doc := document{Version: currentVersion, Packages: l.packages}
	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("lockfile: marshal: %w", err)
	}

	tmpPath := l.path + ".tmp"
	if err := fs.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("lockfile: write temp: %w", err)
	}
	if err := fs.Rename(tmpPath, l.path); err != nil {
		_ = fs.Remove(tmpPath)
		return fmt.Errorf("lockfile: rename: %w", err)
	}
	return nil
}

// Put records or replaces a locked entry.
func (l *Lockfile) Put(e Entry) {
	l.packages[e.Key()] = e
}

// Locked looks up the locked (version, url, integrity) for name, satisfying
// the resolve.LockSource contract so a *Lockfile can be passed directly to
// resolve.New.
func (l *Lockfile) Locked(name string) (resolve.LockedEntry, bool) {
	for _, e := range l.packages {
		if e.Name != name {
			continue
		}
		v, err := version.Parse(e.Version)
		if err != nil {
			continue
		}
		return resolve.LockedEntry{Version: v, ResolvedURL: e.Resolved, Integrity: e.Integrity}, true
	}
	return resolve.LockedEntry{}, false
}

// DriftReport describes the gap between a lockfile and an installed set.
type DriftReport struct {
	Missing         []string
	VersionMismatch []string
}

// Validate compares installed package versions (name -> version string)
// against the lockfile, per spec §4.4.
func (l *Lockfile) Validate(installed map[string]string) DriftReport {
	var report DriftReport
	for key, entry := range l.packages {
		installedVersion, ok := installed[entry.Name]
		if !ok {
			report.Missing = append(report.Missing, key)
			continue
		}
		if installedVersion != entry.Version {
			report.VersionMismatch = append(report.VersionMismatch, key)
		}
	}
	return report
}

// Packages returns a copy of every locked entry, for lockfile inspection
// (e.g. the `status` command).
func (l *Lockfile) Packages() []Entry {
	out := make([]Entry, 0, len(l.packages))
	for _, e := range l.packages {
		out = append(out, e)
	}
	return out
}
