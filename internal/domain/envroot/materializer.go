// Package envroot implements the environment materializer (spec.md §4.8):
// it lays out a per-project install root, fetches and stages each
// resolved package, relocates it, moves it into place, and wires up
// bin symlinks and global stubs.
package envroot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/launchpad-sh/launchpad/internal/domain/archive"
	"github.com/launchpad-sh/launchpad/internal/domain/checkpoint"
	"github.com/launchpad-sh/launchpad/internal/domain/download"
	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
	"github.com/launchpad-sh/launchpad/internal/domain/manifest"
	"github.com/launchpad-sh/launchpad/internal/domain/platform"
	"github.com/launchpad-sh/launchpad/internal/domain/relocate"
	"github.com/launchpad-sh/launchpad/internal/domain/resolve"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

// Item is one resolved package to materialize, carrying the scope
// (local/global) the sniffer attached to its originating requirement.
type Item struct {
	Resolved resolve.Resolved
	Scope    manifest.Scope
	Programs []string // explicit program names, if known; auto-detected from bin/ when empty
}

// PackageOutcome reports what happened to one item during Install.
type PackageOutcome struct {
	Domain  string
	Version string
	Skipped bool // already satisfied by a prior invocation
	Err     error
}

// Materializer drives the fetch/validate/extract/relocate/move pipeline.
type Materializer struct {
	fs        ports.FileSystem
	engine    *download.Engine
	relocator *relocate.Relocator
	plat      *platform.Platform
	cacheDir  string
}

// New builds a Materializer. cacheDir is where downloaded archives land
// before extraction (shared across invocations per spec §5).
func New(fs ports.FileSystem, engine *download.Engine, relocator *relocate.Relocator, plat *platform.Platform, cacheDir string) *Materializer {
	return &Materializer{fs: fs, engine: engine, relocator: relocator, plat: plat, cacheDir: cacheDir}
}

// Install materializes every item into envRoot, skipping anything the
// checkpoint or the existing tree already satisfies (idempotence, spec
// §4.8/§8). A per-package failure unwinds only that package's recorded
// actions via cp and continues with the rest (spec §7).
func (m *Materializer) Install(ctx context.Context, envRoot, globalLibDir string, items []Item, cp *checkpoint.Checkpoint) ([]PackageOutcome, error) {
	layout := NewLayout(envRoot)
	if err := layout.Ensure(m.fs); err != nil {
		return nil, err
	}

	outcomes := make([]PackageOutcome, 0, len(items))
	for _, item := range items {
		domain := item.Resolved.Domain
		version := item.Resolved.Version.String()

		if cp.IsInstalled(domain) || m.fs.Exists(layout.PackageDir(domain, version)) {
			outcomes = append(outcomes, PackageOutcome{Domain: domain, Version: version, Skipped: true})
			continue
		}

		mark := cp.ActionCount()
		if err := m.installOne(ctx, layout, globalLibDir, item, cp); err != nil {
			cp.RollbackFrom(mark)
			outcomes = append(outcomes, PackageOutcome{Domain: domain, Version: version, Err: err})
			continue
		}
		cp.MarkInstalled(domain)
		outcomes = append(outcomes, PackageOutcome{Domain: domain, Version: version})
	}
	return outcomes, nil
}

func (m *Materializer) installOne(ctx context.Context, layout Layout, globalLibDir string, item Item, cp *checkpoint.Checkpoint) error {
	domain, version := item.Resolved.Domain, item.Resolved.Version.String()

	archivePath := filepath.Join(m.cacheDir, fmt.Sprintf("%s-%s%s", domain, version, archiveSuffix(item.Resolved.ResolvedURL)))
	results := m.engine.FetchAll(ctx, []download.Task{{
		URL:       item.Resolved.ResolvedURL,
		DestPath:  archivePath,
		Integrity: item.Resolved.Integrity,
		Domain:    domain,
	}})
	if err := results[0].Err; err != nil {
		return err
	}

	stageDir := filepath.Join(layout.TmpDir(), fmt.Sprintf("%s-%s-%s", domain, version, uuid.New().String()))
	if err := archive.Extract(archivePath, stageDir); err != nil {
		return err
	}

	pkgRoot, err := archive.FindPackageRoot(stageDir, domain, version)
	if err != nil {
		return err
	}

	if warnings := m.relocator.Relocate(ctx, pkgRoot, layout.LibDir(), globalLibDir); len(warnings) > 0 {
		// Relocation warnings are non-fatal (spec §7): the package may
		// still run via system fallbacks.
		_ = warnings
	}

	finalDir := layout.PackageDir(domain, version)
	if err := m.fs.MkdirAll(filepath.Dir(finalDir), 0o755); err != nil {
		return lperr.Wrap(lperr.KindDisk, "create domain directory", err).WithContext(finalDir)
	}
	if err := m.fs.Rename(pkgRoot, finalDir); err != nil {
		return lperr.Wrap(lperr.KindDisk, "move package into place", err).WithContext(finalDir)
	}
	cp.RecordDirCreated(finalDir)

	majorLink := layout.MajorLink(domain, item.Resolved.Version.Major)
	_ = m.fs.Remove(majorLink)
	if err := m.fs.CreateSymlink(finalDir, majorLink); err != nil {
		return lperr.Wrap(lperr.KindDisk, "create major-version symlink", err).WithContext(majorLink)
	}
	cp.RecordSymlinkCreated(majorLink)

	programs := item.Programs
	if len(programs) == 0 {
		programs = m.discoverPrograms(finalDir)
	}
	for _, prog := range programs {
		target := filepath.Join(finalDir, "bin", prog)
		if !m.fs.Exists(target) {
			target = filepath.Join(finalDir, "sbin", prog)
		}
		link := filepath.Join(layout.BinDir(), prog)
		if isSymlink, _ := m.fs.IsSymlink(link); !isSymlink && m.fs.Exists(link) {
			// never overwrite a user file that is not a symlink
			continue
		}
		_ = m.fs.Remove(link)
		if err := m.fs.CreateSymlink(target, link); err != nil {
			return lperr.Wrap(lperr.KindDisk, "create program symlink", err).WithContext(link)
		}
		cp.RecordSymlinkCreated(link)
	}

	if item.Scope == manifest.ScopeGlobal {
		if err := m.materializeStubs(layout, finalDir, programs, cp); err != nil {
			return err
		}
	}

	return nil
}

// discoverPrograms lists every regular entry under finalDir/bin and
// finalDir/sbin, since package metadata does not separately enumerate
// "programs" (spec §3's Package shape leaves this implicit).
func (m *Materializer) discoverPrograms(finalDir string) []string {
	var names []string
	for _, sub := range []string{"bin", "sbin"} {
		entries, err := m.fs.ReadDir(filepath.Join(finalDir, sub))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	return names
}

func archiveSuffix(url string) string {
	switch {
	case strings.HasSuffix(url, ".tar.xz"):
		return ".tar.xz"
	case strings.HasSuffix(url, ".tar.gz"):
		return ".tar.gz"
	default:
		return ".tar.gz"
	}
}
