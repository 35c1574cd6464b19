// Package sniff walks a project directory and emits a deduplicated set of
// package requirements and environment assignments, per spec.md §4.1.
package sniff

import (
	"path/filepath"

	"github.com/launchpad-sh/launchpad/internal/domain/manifest"
	"github.com/launchpad-sh/launchpad/internal/domain/platform"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

// Sniffer walks a project directory and produces a manifest.SniffResult.
type Sniffer struct {
	fs       ports.FileSystem
	resolver manifest.DomainResolver
	plat     *platform.Platform
	home     string
	srcroot  string
}

// New builds a Sniffer. home and srcroot feed {{home}}/{{srcroot}}
// substitution in env blocks (spec §3).
func New(fs ports.FileSystem, resolver manifest.DomainResolver, plat *platform.Platform, home, srcroot string) *Sniffer {
	if resolver == nil {
		resolver = manifest.IdentityResolver{}
	}
	return &Sniffer{fs: fs, resolver: resolver, plat: plat, home: home, srcroot: srcroot}
}

// Sniff walks dir (and its immediate contents only — manifests are
// project-root artifacts, not recursively discovered) and returns the
// merged requirement set. A parse failure on any one file never fails the
// whole sniff (spec §4.1); only ErrInvalidDollarUsage is fatal.
func (s *Sniffer) Sniff(dir string) (manifest.SniffResult, error) {
	dl, err := s.listDir(dir)
	if err != nil {
		return manifest.SniffResult{}, err
	}

	result := manifest.SniffResult{}

	if explicit, ok := s.findExplicitManifest(dir, dl); ok {
		data, err := s.fs.ReadFile(explicit)
		if err == nil {
			parsed, perr := parsePantryYAML(data, s.resolver, s.home, s.srcroot)
			if perr != nil {
				if _, fatal := perr.(*manifest.ErrInvalidDollarUsage); fatal {
					return manifest.SniffResult{}, perr
				}
				// any other parse error: this file contributes nothing.
			} else {
				for _, req := range parsed.Packages {
					result.Merge(req)
				}
				for k, v := range parsed.Env {
					result.MergeEnv(k, v)
				}
			}
		}
	}

	for _, req := range inferFromDir(dl, s.resolver, s.plat) {
		result.Merge(req)
	}

	if dl.entries[".npmrc"] {
		if data, err := s.fs.ReadFile(filepath.Join(dir, ".npmrc")); err == nil {
			parseNpmrc(data, &result)
		}
	}

	return result, nil
}

// ManifestFile returns the path and content of the explicit manifest file
// governing dir, if any. Installers use this to feed the dependency-file
// hash into envroot.Identity (spec §6/§8 scenario 4).
func (s *Sniffer) ManifestFile(dir string) (path string, content []byte, ok bool) {
	dl, err := s.listDir(dir)
	if err != nil {
		return "", nil, false
	}
	explicit, found := s.findExplicitManifest(dir, dl)
	if !found {
		return "", nil, false
	}
	data, err := s.fs.ReadFile(explicit)
	if err != nil {
		return "", nil, false
	}
	return explicit, data, true
}

// findExplicitManifest returns the first discovered explicit manifest path
// in the fixed precedence order of spec §6, checking both the bare and
// dotfile-prefixed form of each name.
func (s *Sniffer) findExplicitManifest(dir string, dl dirListing) (string, bool) {
	for _, name := range explicitManifestNames {
		if dl.entries[name] {
			return filepath.Join(dir, name), true
		}
		dotted := "." + name
		if dl.entries[dotted] {
			return filepath.Join(dir, dotted), true
		}
	}
	return "", false
}

// listDir reads one directory's entries and eagerly reads the content of
// any readableSignals present, so inference rules that need file content
// (package.json's packageManager field, .nvmrc's version string) have it.
func (s *Sniffer) listDir(dir string) (dirListing, error) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return dirListing{}, err
	}

	dl := dirListing{
		entries:  make(map[string]bool, len(entries)),
		contents: make(map[string][]byte),
	}
	for _, e := range entries {
		dl.entries[e.Name()] = true
	}
	for _, name := range readableSignals {
		if !dl.entries[name] {
			continue
		}
		if data, err := s.fs.ReadFile(filepath.Join(dir, name)); err == nil {
			dl.contents[name] = data
		}
	}
	return dl, nil
}

// FindProjectRoot walks upward from dir looking for the first directory
// containing a recognized manifest file (explicit or a subset of the
// strongest inferred signals), stopping at the filesystem root. It backs
// the `dev:find-project-root` CLI surface (spec §6).
func FindProjectRoot(fs ports.FileSystem, dir string) (string, bool) {
	current := dir
	for {
		entries, err := fs.ReadDir(current)
		if err == nil {
			names := make(map[string]bool, len(entries))
			for _, e := range entries {
				names[e.Name()] = true
			}
			if hasExplicitManifest(names) {
				return current, true
			}
			for _, strong := range []string{"package.json", "Cargo.toml", "go.mod", "pyproject.toml", "Gemfile"} {
				if names[strong] {
					return current, true
				}
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}
