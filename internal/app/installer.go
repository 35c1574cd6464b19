// Package app wires components C1-C11 into the single install pipeline
// described by spec.md §9's design note: an explicit Installer context
// passed through every stage, no hidden globals.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/launchpad-sh/launchpad/internal/adapters/logging"
	"github.com/launchpad-sh/launchpad/internal/domain/checkpoint"
	"github.com/launchpad-sh/launchpad/internal/domain/download"
	"github.com/launchpad-sh/launchpad/internal/domain/envroot"
	"github.com/launchpad-sh/launchpad/internal/domain/lockfile"
	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
	"github.com/launchpad-sh/launchpad/internal/domain/manifest"
	"github.com/launchpad-sh/launchpad/internal/domain/platform"
	"github.com/launchpad-sh/launchpad/internal/domain/ready"
	"github.com/launchpad-sh/launchpad/internal/domain/registry"
	"github.com/launchpad-sh/launchpad/internal/domain/relocate"
	"github.com/launchpad-sh/launchpad/internal/domain/resolve"
	"github.com/launchpad-sh/launchpad/internal/domain/shellgen"
	"github.com/launchpad-sh/launchpad/internal/domain/sniff"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

// Config holds every dependency the Installer needs, built once at
// startup (cmd/launchpad wires this from real adapters; tests wire it
// from mocks).
type Config struct {
	FS       ports.FileSystem
	Runner   ports.CommandRunner
	Logger   ports.Logger
	Platform *platform.Platform

	Registry *registry.Client
	Engine   *download.Engine

	Mode     resolve.Mode
	Strategy resolve.ConflictStrategy

	// Home is substituted for "{{home}}" in sniffed env blocks (spec §3);
	// "{{srcroot}}" is substituted with each call's own projectDir.
	Home string

	CacheDir      string
	GlobalEnvRoot string

	InstallerCommand string // the CLI invocation rendered into the shell hook, e.g. "launchpad install"
}

// Installer drives one project's sniff -> resolve -> fetch -> extract ->
// relocate -> materialize -> lock -> shell-emit pipeline (spec §9).
type Installer struct {
	cfg       Config
	relocator *relocate.Relocator
	oracle    *ready.Oracle
	snapshots *lockSnapshotStore
}

// New builds an Installer from cfg.
func New(cfg Config) *Installer {
	snapDir := cfg.CacheDir
	if snapDir == "" {
		snapDir = filepath.Join(cfg.GlobalEnvRoot, ".snapshots")
	} else {
		snapDir = filepath.Join(snapDir, "lock-snapshots")
	}
	return &Installer{
		cfg:       cfg,
		relocator: relocate.New(cfg.Runner, cfg.Platform),
		oracle:    ready.New(cfg.FS, cfg.Runner, cfg.Registry),
		snapshots: newLockSnapshotStore(cfg.FS, snapDir),
	}
}

// PackageReport pairs a resolved requirement with what happened to it.
type PackageReport struct {
	Requirement manifest.Requirement
	Resolved    resolve.Resolved
	Readiness   ready.Status
	Outcome     envroot.PackageOutcome
}

// Result is everything a caller (CLI or test) needs after Install.
type Result struct {
	ProjectIdentity string
	EnvRoot         string
	Packages        []PackageReport
	ShellScript     string // POSIX/bash-compatible rendering; use Plan directly for other renderers
	Plan            shellgen.Plan
	LockSnapshotID  string // empty if the lockfile did not exist yet, nothing to roll back to
}

// Install runs the full pipeline for the project rooted at projectDir.
func (in *Installer) Install(ctx context.Context, projectDir string) (Result, error) {
	log := in.cfg.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}

	s := sniff.New(in.cfg.FS, in.cfg.Registry, in.cfg.Platform, in.cfg.Home, projectDir)
	sniffed, err := s.Sniff(projectDir)
	if err != nil {
		return Result{}, err
	}
	log.Info(ctx, "sniffed project", ports.F("domains", len(sniffed.Packages)))
	sniffed.Packages = withCompanions(ctx, in.cfg.Registry, sniffed.Packages)

	_, manifestContent, _ := s.ManifestFile(projectDir)
	identity := envroot.Identity(projectDir, manifestContent)
	envRoot := envroot.EnvPath(identity)

	lockPath := filepath.Join(projectDir, "pantry.lock")
	lock, err := lockfile.Load(in.cfg.FS, lockPath)
	if err != nil {
		return Result{}, err
	}

	lockSnapshotID, serr := in.snapshots.snapshot(lockPath)
	if serr != nil {
		log.Warn(ctx, "lockfile snapshot failed, rollback unavailable for this run", ports.F("error", serr.Error()))
	}

	resolver := resolve.New(in.cfg.Registry, lock, in.cfg.Mode, in.cfg.Strategy)

	cp, err := checkpoint.Load(in.cfg.FS, envRoot)
	if err != nil {
		return Result{}, err
	}

	layout := envroot.NewLayout(envRoot)
	globalLayout := envroot.NewLayout(in.cfg.GlobalEnvRoot)

	grouped := groupByDomain(sniffed.Packages)

	var items []envroot.Item
	reports := make([]PackageReport, 0, len(grouped))
	for _, group := range grouped {
		req := group[0]

		status, rerr := in.oracle.Check(ctx, identity, envRoot, in.cfg.GlobalEnvRoot, len(sniffed.Packages), req)
		if rerr != nil {
			return Result{}, rerr
		}
		if status.Satisfied {
			reports = append(reports, PackageReport{Requirement: req, Readiness: status})
			log.Debug(ctx, "already satisfied", ports.F("domain", req.Domain), ports.F("scope", string(status.Scope)))
			continue
		}

		resolved, rerr := resolver.ResolveConflict(ctx, req.Domain, group)
		if rerr != nil {
			reports = append(reports, PackageReport{Requirement: req, Readiness: status, Outcome: envroot.PackageOutcome{Domain: req.Domain, Err: rerr}})
			continue
		}
		if resolved.ResolvedURL == "" {
			resolved.ResolvedURL = tarballURL(in.cfg.Registry, in.cfg.Platform, resolved)
		}

		items = append(items, envroot.Item{Resolved: resolved, Scope: req.Scope})
		reports = append(reports, PackageReport{Requirement: req, Resolved: resolved, Readiness: status})
	}

	materializer := envroot.New(in.cfg.FS, in.cfg.Engine, in.relocator, in.cfg.Platform, in.cfg.CacheDir)
	outcomes, err := materializer.Install(ctx, envRoot, filepath.Join(in.cfg.Home, ".pantry", "global"), items, cp)
	if err != nil {
		return Result{}, err
	}
	if err := cp.Save(); err != nil {
		return Result{}, err
	}

	for i := range reports {
		for _, outcome := range outcomes {
			if outcome.Domain == reports[i].Resolved.Domain && reports[i].Resolved.Domain != "" {
				reports[i].Outcome = outcome
			}
		}
	}

	anyFailed := false
	for _, report := range reports {
		o := report.Outcome
		if o.Domain == "" {
			continue
		}
		if o.Err != nil {
			anyFailed = true
			log.Error(ctx, "package install failed", ports.F("domain", o.Domain), ports.F("error", o.Err.Error()))
			continue
		}
		if !o.Skipped {
			lock.Put(lockfile.Entry{
				Name:      o.Domain,
				Version:   o.Version,
				Resolved:  report.Resolved.ResolvedURL,
				Integrity: report.Resolved.Integrity,
			})
		}
	}
	if err := lock.Write(in.cfg.FS); err != nil {
		return Result{}, err
	}
	if !anyFailed {
		if err := cp.Commit(); err != nil {
			return Result{}, err
		}
	}

	plan := shellgen.Build(shellgen.BuildOptions{
		ProjectDir:       projectDir,
		ProjectHash:      identity,
		EnvBinDir:        layout.BinDir(),
		EnvSbinDir:       layout.SbinDir(),
		GlobalBinDir:     globalLayout.BinDir(),
		GlobalSbinDir:    globalLayout.SbinDir(),
		LibDirs:          []string{layout.LibDir(), globalLayout.LibDir()},
		SniffedEnv:       sniffed.Env,
		InstallerCommand: in.cfg.InstallerCommand,
	})

	return Result{
		ProjectIdentity: identity,
		EnvRoot:         envRoot,
		Packages:        reports,
		ShellScript:     shellgen.Render(plan),
		Plan:            plan,
		LockSnapshotID:  lockSnapshotID,
	}, nil
}

// Rollback restores the lockfile captured by a prior Install's
// LockSnapshotID, undoing that run's resolution record without touching
// any already-materialized package directories.
func (in *Installer) Rollback(_ context.Context, snapshotID string) error {
	return in.snapshots.restore(snapshotID)
}

// withCompanions appends each requirement's declared companion packages
// (spec §5) as inferred requirements, skipping any domain already present
// so an explicit manifest entry always wins over a companion default.
func withCompanions(ctx context.Context, reg *registry.Client, reqs []manifest.Requirement) []manifest.Requirement {
	if reg == nil {
		return reqs
	}

	present := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		present[r.Domain] = true
	}

	out := reqs
	for _, r := range reqs {
		for _, companion := range reg.Companions(ctx, r.Domain) {
			if present[companion.Domain] {
				continue
			}
			present[companion.Domain] = true
			out = append(out, manifest.Requirement{
				Domain:     companion.Domain,
				Constraint: companion.Constraint,
				Scope:      r.Scope,
				Source:     manifest.SourceInferred,
			})
		}
	}
	return out
}

// groupByDomain buckets requirements by domain, preserving first-seen
// order, so ResolveConflict sees every requirement naming the same
// package together (spec §4.3).
func groupByDomain(reqs []manifest.Requirement) [][]manifest.Requirement {
	order := make([]string, 0, len(reqs))
	buckets := make(map[string][]manifest.Requirement)
	for _, r := range reqs {
		if _, ok := buckets[r.Domain]; !ok {
			order = append(order, r.Domain)
		}
		buckets[r.Domain] = append(buckets[r.Domain], r)
	}
	out := make([][]manifest.Requirement, 0, len(order))
	for _, domain := range order {
		out = append(out, buckets[domain])
	}
	return out
}

// tarballURL builds the registry download URL for a version resolved
// without one already recorded (i.e. not loaded from a lockfile entry,
// which carries its own ResolvedURL).
func tarballURL(client *registry.Client, plat *platform.Platform, resolved resolve.Resolved) string {
	if client == nil || plat == nil {
		return ""
	}
	osName, err := plat.RegistryPlatform()
	if err != nil {
		return ""
	}
	arch, err := plat.RegistryArch()
	if err != nil {
		return ""
	}
	return client.TarballURL(resolved.Domain, resolved.Version, osName, arch, registry.FormatTarXZ)
}

// ErrNoProjectRoot reports that no recognized manifest was found walking
// upward from a start directory. dev:find-project-root reports that case
// with its own error message and does not return this value.
var ErrNoProjectRoot = fmt.Errorf("launchpad: no project root found")
