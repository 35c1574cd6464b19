// Package ready implements the readiness oracle (spec.md §4.9): deciding
// whether an environment, the global environment, or the system PATH
// already satisfies a requirement, and whether a newer version exists.
package ready

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/launchpad-sh/launchpad/internal/domain/manifest"
	"github.com/launchpad-sh/launchpad/internal/domain/version"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

// Scope says where a requirement was found satisfied.
type Scope string

const (
	ScopeThisEnv Scope = "this-env"
	ScopeGlobal  Scope = "global"
	ScopeSystem  Scope = "system"
	ScopeNone    Scope = "none"
)

// probeTimeout bounds a system `<cmd> --version` probe (spec §4.9 step 3).
const probeTimeout = 5 * time.Second

// cacheTTL is how long a positive result stays cached (spec §4.9).
const cacheTTL = 5 * time.Second

// probeCommands maps a domain to the system command(s) that might satisfy
// it, tried in order, per spec §4.9 step 3's examples.
var probeCommands = map[string][]string{
	"nodejs.org":      {"node"},
	"bun.sh":                {"bun"},
	"deno.land":             {"deno"},
	"python.org":            {"python3", "python"},
	"git-scm.org":           {"git"},
	"mercurial-scm.org":     {"hg"},
	"subversion.apache.org": {"svn"},
	"rust-lang.org":         {"rustc"},
	"ruby-lang.org":         {"ruby"},
	"redis.io":              {"redis-server"},
	"postgresql.org":        {"psql"},
	"sqlite.org":            {"sqlite3"},
	"terraform.io":          {"terraform"},
	"go.dev":                {"go"},
	"openssl.org":           {"openssl"},
	"curl.se":               {"curl"},
	"stedolan.github.io":    {"jq"},
	"ffmpeg.org":            {"ffmpeg"},
	"cli.github.com":        {"gh"},
}

var versionToken = regexp.MustCompile(`\d+(\.\d+){0,2}`)

// VersionSource looks up every known version for a domain, newest first.
// Satisfied by *registry.Client.
type VersionSource interface {
	Versions(ctx context.Context, domain string) ([]version.SemVer, error)
}

// Status is the outcome of checking one requirement.
type Status struct {
	Satisfied bool
	Scope     Scope
	Version   version.SemVer
	Outdated  bool
	Newest    version.SemVer
}

type cacheKey struct {
	projectIdentity string
	scope           string
	reqCount        int
	bucket          int64
}

type cacheEntry struct {
	status    Status
	expiresAt time.Time
}

// Oracle decides readiness, per spec §4.9's tiered satisfaction check.
type Oracle struct {
	fs       ports.FileSystem
	runner   ports.CommandRunner
	versions VersionSource

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// New builds an Oracle. versions may be nil, in which case outdated
// detection is skipped (the resolver's own registry client is optional
// here — readiness can run offline).
func New(fs ports.FileSystem, runner ports.CommandRunner, versions VersionSource) *Oracle {
	return &Oracle{fs: fs, runner: runner, versions: versions, cache: make(map[cacheKey]cacheEntry)}
}

// Check decides the readiness of req against envRoot (this project) and
// globalEnvRoot (the shared global environment), probing the system PATH
// as a last resort. projectIdentity and reqCount feed the cache key.
func (o *Oracle) Check(ctx context.Context, projectIdentity, envRoot, globalEnvRoot string, reqCount int, req manifest.Requirement) (Status, error) {
	rng, err := version.ParseRange(req.Constraint)
	if err != nil {
		return Status{}, err
	}

	key := cacheKey{projectIdentity: projectIdentity, scope: req.Domain, reqCount: reqCount, bucket: time.Now().Unix() / 60}
	if cached, ok := o.lookup(key); ok {
		return cached, nil
	}

	status := o.checkUncached(ctx, envRoot, globalEnvRoot, req.Domain, rng)
	if status.Satisfied {
		o.store(key, status)
	}
	return status, nil
}

func (o *Oracle) checkUncached(ctx context.Context, envRoot, globalEnvRoot, domain string, rng version.Range) Status {
	if v, ok := bestSatisfying(scanInstalled(o.fs, envRoot, domain), rng); ok {
		return o.withOutdated(ctx, domain, rng, Status{Satisfied: true, Scope: ScopeThisEnv, Version: v})
	}
	if v, ok := bestSatisfying(scanInstalled(o.fs, globalEnvRoot, domain), rng); ok {
		return o.withOutdated(ctx, domain, rng, Status{Satisfied: true, Scope: ScopeGlobal, Version: v})
	}
	if v, ok := o.probeSystem(ctx, domain, rng); ok {
		// system satisfaction cannot trigger "outdated" (spec §4.9 step 3).
		return Status{Satisfied: true, Scope: ScopeSystem, Version: v}
	}
	return Status{Satisfied: false, Scope: ScopeNone}
}

// withOutdated compares status.Version against the newest version
// satisfying rng from the registry, marking Outdated when a strictly
// newer one exists.
func (o *Oracle) withOutdated(ctx context.Context, domain string, rng version.Range, status Status) Status {
	if o.versions == nil {
		return status
	}
	versions, err := o.versions.Versions(ctx, domain)
	if err != nil {
		return status
	}
	for _, v := range versions {
		if rng.Satisfies(v) && version.LessThan(status.Version, v) {
			status.Outdated = true
			status.Newest = v
			break // versions is newest-first
		}
	}
	return status
}

func (o *Oracle) probeSystem(ctx context.Context, domain string, rng version.Range) (version.SemVer, bool) {
	candidates, ok := probeCommands[domain]
	if !ok {
		return version.SemVer{}, false
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	for _, cmd := range candidates {
		res, err := o.runner.Run(probeCtx, cmd, "--version")
		if err != nil || !res.Success() {
			continue
		}
		match := versionToken.FindString(res.Stdout + res.Stderr)
		if match == "" {
			continue
		}
		v, err := version.Parse(match)
		if err != nil {
			continue
		}
		if rng.Satisfies(v) {
			return v, true
		}
	}
	return version.SemVer{}, false
}

func (o *Oracle) lookup(key cacheKey) (Status, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return Status{}, false
	}
	return entry.status, true
}

func (o *Oracle) store(key cacheKey, status Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cache[key] = cacheEntry{status: status, expiresAt: time.Now().Add(cacheTTL)}
}

// scanInstalled lists every "v<version>" entry directly under
// root/domain, parsing each into a SemVer. Entries that don't parse
// (stray files) are skipped.
func scanInstalled(fs ports.FileSystem, root, domain string) []version.SemVer {
	entries, err := fs.ReadDir(filepath.Join(root, domain))
	if err != nil {
		return nil
	}
	var out []version.SemVer
	for _, e := range entries {
		name := strings.TrimPrefix(e.Name(), "v")
		if name == e.Name() {
			continue // not a "v*" entry
		}
		v, err := version.Parse(name)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// bestSatisfying returns the newest version in candidates that satisfies
// rng.
func bestSatisfying(candidates []version.SemVer, rng version.Range) (version.SemVer, bool) {
	var best version.SemVer
	found := false
	for _, v := range candidates {
		if !rng.Satisfies(v) {
			continue
		}
		if !found || version.LessThan(best, v) {
			best = v
			found = true
		}
	}
	return best, found
}
