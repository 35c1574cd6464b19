// Package resolve implements version resolution against registry data and
// a lockfile snapshot, per spec.md §4.3.
package resolve

import (
	"context"
	"fmt"

	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
	"github.com/launchpad-sh/launchpad/internal/domain/manifest"
	"github.com/launchpad-sh/launchpad/internal/domain/version"
)

// Mode controls lockfile strictness.
type Mode int

const (
	// ModeNormal falls back to registry resolution when the lockfile has
	// no entry for a domain.
	ModeNormal Mode = iota
	// ModeFrozen treats a missing lockfile entry as an error.
	ModeFrozen
)

// ConflictStrategy decides how multiple explicit requirements for the same
// domain are reconciled when their satisfiable sets are disjoint.
type ConflictStrategy string

const (
	StrategyHighestCompatible ConflictStrategy = "highest_compatible"
	StrategyStrict            ConflictStrategy = "strict"
	StrategyFirstWins         ConflictStrategy = "first_wins"
	StrategyLastWins          ConflictStrategy = "last_wins"
)

// LockedEntry is the subset of a lockfile entry the resolver consults.
type LockedEntry struct {
	Version     version.SemVer
	ResolvedURL string
	Integrity   string
}

// LockSource provides lockfile lookups without coupling the resolver to
// the lockfile package's file-format concerns.
type LockSource interface {
	Locked(domain string) (LockedEntry, bool)
}

// VersionSource provides the registry's known versions for a domain,
// newest first.
type VersionSource interface {
	Versions(ctx context.Context, domain string) ([]version.SemVer, error)
}

// Resolved is a concrete package selection (spec §3: "Resolved package").
type Resolved struct {
	Domain      string
	Version     version.SemVer
	ResolvedURL string
	Integrity   string
	FromLock    bool
}

// Resolver selects concrete versions for requirements.
type Resolver struct {
	versions VersionSource
	lock     LockSource
	mode     Mode
	strategy ConflictStrategy
}

// New builds a Resolver. lock may be nil (no lockfile present).
func New(versions VersionSource, lock LockSource, mode Mode, strategy ConflictStrategy) *Resolver {
	if strategy == "" {
		strategy = StrategyHighestCompatible
	}
	return &Resolver{versions: versions, lock: lock, mode: mode, strategy: strategy}
}

// Resolve picks a concrete version for a single requirement, consulting
// the lockfile first (spec §4.3 step 1) and otherwise choosing the newest
// version satisfying the constraint (step 2).
func (r *Resolver) Resolve(ctx context.Context, req manifest.Requirement) (Resolved, error) {
	if r.lock != nil {
		if entry, ok := r.lock.Locked(req.Domain); ok {
			return Resolved{
				Domain:      req.Domain,
				Version:     entry.Version,
				ResolvedURL: entry.ResolvedURL,
				Integrity:   entry.Integrity,
				FromLock:    true,
			}, nil
		}
		if r.mode == ModeFrozen {
			return Resolved{}, lperr.New(lperr.KindResolution,
				fmt.Sprintf("frozen mode: no lockfile entry for %s", req.Domain)).
				WithContext(req.String())
		}
	}

	rng, err := version.ParseRange(req.Constraint)
	if err != nil {
		return Resolved{}, lperr.Wrap(lperr.KindResolution, fmt.Sprintf("invalid constraint for %s", req.Domain), err)
	}

	versions, err := r.versions.Versions(ctx, req.Domain)
	if err != nil {
		return Resolved{}, err
	}

	for _, v := range versions {
		if rng.Satisfies(v) {
			return Resolved{Domain: req.Domain, Version: v}, nil
		}
	}

	return Resolved{}, lperr.New(lperr.KindResolution,
		fmt.Sprintf("no version of %s satisfies %s", req.Domain, req.Constraint)).
		WithSuggestion("check the registry for available versions or relax the constraint")
}

// ResolveConflict reconciles multiple requirements naming the same domain,
// applying explicit>inferred and specificity ordering first (the caller is
// expected to have already reduced to "explicit" requirements via
// manifest.SniffResult.Merge; this handles the residual case of two
// explicit requirements with disjoint satisfiable sets), per spec §4.3.
func (r *Resolver) ResolveConflict(ctx context.Context, domain string, reqs []manifest.Requirement) (Resolved, error) {
	if len(reqs) == 0 {
		return Resolved{}, fmt.Errorf("resolve: no requirements for %s", domain)
	}
	if len(reqs) == 1 {
		return r.Resolve(ctx, reqs[0])
	}

	ranges := make([]version.Range, 0, len(reqs))
	for _, req := range reqs {
		rng, err := version.ParseRange(req.Constraint)
		if err != nil {
			return Resolved{}, lperr.Wrap(lperr.KindResolution, fmt.Sprintf("invalid constraint for %s", domain), err)
		}
		ranges = append(ranges, rng)
	}

	versions, err := r.versions.Versions(ctx, domain)
	if err != nil {
		return Resolved{}, err
	}

	switch r.strategy {
	case StrategyFirstWins:
		return r.Resolve(ctx, reqs[0])
	case StrategyLastWins:
		return r.Resolve(ctx, reqs[len(reqs)-1])
	default:
		// highest_compatible (default) and strict both search for a
		// version satisfying every requirement simultaneously; strict
		// differs only in that a miss here is the final answer (no
		// softer fallback), which is already this function's behavior.
		for _, v := range versions {
			if satisfiesAll(ranges, v) {
				return Resolved{Domain: domain, Version: v}, nil
			}
		}
		if r.strategy == StrategyStrict {
			return Resolved{}, lperr.New(lperr.KindResolution,
				fmt.Sprintf("no version of %s satisfies every requirement under strict policy", domain))
		}
		return Resolved{}, lperr.New(lperr.KindResolution,
			fmt.Sprintf("no version of %s satisfies every requirement", domain))
	}
}

func satisfiesAll(ranges []version.Range, v version.SemVer) bool {
	for _, rng := range ranges {
		if !rng.Satisfies(v) {
			return false
		}
	}
	return true
}
