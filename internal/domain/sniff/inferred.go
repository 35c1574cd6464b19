package sniff

import (
	"path/filepath"
	"regexp"

	"github.com/pelletier/go-toml/v2"

	"github.com/launchpad-sh/launchpad/internal/domain/manifest"
	"github.com/launchpad-sh/launchpad/internal/domain/platform"
)

// dirListing is what a signal rule sees of one directory: which entry
// names are present, and the raw content of any entries the rule asked to
// have read (see readableSignals).
type dirListing struct {
	entries  map[string]bool
	contents map[string][]byte
}

// signalFile is one inferred-dependency rule: if name is present in a
// directory listing, emit the given requirements.
type signalFile struct {
	name string
	emit func(dl dirListing, resolver manifest.DomainResolver, plat *platform.Platform) []manifest.Requirement
}

var packageManagerPattern = regexp.MustCompile(`"packageManager"\s*:\s*"([a-zA-Z0-9_.@/-]+)@`)

// readableSignals names files whose content (not just presence) a rule
// needs; the walker reads these eagerly for every directory it visits.
var readableSignals = []string{"package.json", ".nvmrc", ".python-version", ".terraform-version", "Cargo.toml"}

// cargoManifest is the subset of Cargo.toml's schema the sniffer cares
// about: a pinned minimum compiler version.
type cargoManifest struct {
	Package struct {
		RustVersion string `toml:"rust-version"`
	} `toml:"package"`
}

// cargoConstraint reads Cargo.toml's [package] rust-version, if present,
// and turns it into a caret constraint; malformed or absent TOML falls
// back to "*" rather than failing the whole sniff (parse errors are
// never fatal, per spec §4.1).
func cargoConstraint(data []byte) string {
	var doc cargoManifest
	if err := toml.Unmarshal(data, &doc); err != nil || doc.Package.RustVersion == "" {
		return "*"
	}
	return "^" + doc.Package.RustVersion
}

// inferredSignals lists every project-signal file the sniffer recognizes,
// per spec §4.1. Order does not affect the result: conflicts are resolved
// by manifest.SniffResult.Merge, not by signal order.
var inferredSignals = []signalFile{
	{
		name: "package.json",
		emit: func(dl dirListing, resolver manifest.DomainResolver, _ *platform.Platform) []manifest.Requirement {
			if m := packageManagerPattern.FindSubmatch(dl.contents["package.json"]); m != nil {
				// A declared packageManager names the JS runtime explicitly;
				// spec §8 scenario 1: bun excludes any nodejs.org inference.
				if string(m[1]) == "bun" {
					return []manifest.Requirement{{Domain: resolver.ResolveName("bun"), Constraint: "*", Source: manifest.SourceInferred}}
				}
			}
			// Node is only auto-inferred when no JS runtime has already
			// been contributed and no explicit manifest or bun lockfile
			// is present (spec §4.1's node/bun mutual-exclusion rule).
			if dl.entries["bun.lock"] || dl.entries["bun.lockb"] {
				return nil
			}
			if hasExplicitManifest(dl.entries) {
				return nil
			}
			return []manifest.Requirement{{
				Domain:     resolver.ResolveName("node"),
				Constraint: "^22",
				Source:     manifest.SourceInferred,
			}}
		},
	},
	{
		name: "bun.lock",
		emit: func(_ dirListing, resolver manifest.DomainResolver, _ *platform.Platform) []manifest.Requirement {
			return []manifest.Requirement{{Domain: resolver.ResolveName("bun"), Constraint: "*", Source: manifest.SourceInferred}}
		},
	},
	{
		name: "bun.lockb",
		emit: func(_ dirListing, resolver manifest.DomainResolver, _ *platform.Platform) []manifest.Requirement {
			return []manifest.Requirement{{Domain: resolver.ResolveName("bun"), Constraint: "*", Source: manifest.SourceInferred}}
		},
	},
	{
		name: "Cargo.toml",
		emit: func(dl dirListing, resolver manifest.DomainResolver, _ *platform.Platform) []manifest.Requirement {
			constraint := cargoConstraint(dl.contents["Cargo.toml"])
			return []manifest.Requirement{{Domain: resolver.ResolveName("rust"), Constraint: constraint, Source: manifest.SourceInferred}}
		},
	},
	{
		name: "go.mod",
		emit: func(_ dirListing, resolver manifest.DomainResolver, _ *platform.Platform) []manifest.Requirement {
			return []manifest.Requirement{{Domain: resolver.ResolveName("go"), Constraint: "*", Source: manifest.SourceInferred}}
		},
	},
	{
		name: "pyproject.toml",
		emit: func(_ dirListing, resolver manifest.DomainResolver, _ *platform.Platform) []manifest.Requirement {
			return []manifest.Requirement{{Domain: resolver.ResolveName("python"), Constraint: "*", Source: manifest.SourceInferred}}
		},
	},
	{
		name: "Gemfile",
		emit: func(_ dirListing, resolver manifest.DomainResolver, _ *platform.Platform) []manifest.Requirement {
			return []manifest.Requirement{{Domain: resolver.ResolveName("ruby"), Constraint: "*", Source: manifest.SourceInferred}}
		},
	},
	{
		name: "Taskfile.yml",
		emit: func(_ dirListing, resolver manifest.DomainResolver, _ *platform.Platform) []manifest.Requirement {
			return []manifest.Requirement{{Domain: resolver.ResolveName("task"), Constraint: "*", Source: manifest.SourceInferred}}
		},
	},
	{
		name: "skaffold.yaml",
		emit: func(_ dirListing, resolver manifest.DomainResolver, _ *platform.Platform) []manifest.Requirement {
			return []manifest.Requirement{{Domain: resolver.ResolveName("skaffold"), Constraint: "*", Source: manifest.SourceInferred}}
		},
	},
	{
		name: ".nvmrc",
		emit: func(dl dirListing, resolver manifest.DomainResolver, _ *platform.Platform) []manifest.Requirement {
			return []manifest.Requirement{{Domain: resolver.ResolveName("node"), Constraint: parseDotfileVersion(dl.contents[".nvmrc"]), Source: manifest.SourceInferred}}
		},
	},
	{
		name: ".python-version",
		emit: func(dl dirListing, resolver manifest.DomainResolver, _ *platform.Platform) []manifest.Requirement {
			return []manifest.Requirement{{Domain: resolver.ResolveName("python"), Constraint: parseDotfileVersion(dl.contents[".python-version"]), Source: manifest.SourceInferred}}
		},
	},
	{
		name: ".terraform-version",
		emit: func(dl dirListing, resolver manifest.DomainResolver, _ *platform.Platform) []manifest.Requirement {
			return []manifest.Requirement{{Domain: resolver.ResolveName("terraform"), Constraint: parseDotfileVersion(dl.contents[".terraform-version"]), Source: manifest.SourceInferred}}
		},
	},
}

// hasExplicitManifest reports whether an explicit manifest (bare or dotfile
// name) is present, which makes node-inference back off (spec §4.1: "no
// explicit deps file is present").
func hasExplicitManifest(entries map[string]bool) bool {
	for _, name := range explicitManifestNames {
		if entries[name] || entries["."+name] {
			return true
		}
	}
	return false
}

// vcsDirs maps each version-control directory to its inferred domain; only
// git is skipped on macOS (see inferFromDir).
var vcsDirs = map[string]string{
	".git": "git-scm.org",
	".hg":  "mercurial-scm.org",
	".svn": "subversion.apache.org",
}

// inferFromDir builds the inferred-requirement contribution of a single
// directory's listing.
func inferFromDir(dl dirListing, resolver manifest.DomainResolver, plat *platform.Platform) []manifest.Requirement {
	var reqs []manifest.Requirement

	for _, sig := range inferredSignals {
		if !dl.entries[sig.name] {
			continue
		}
		reqs = append(reqs, sig.emit(dl, resolver, plat)...)
	}

	for dir, domain := range vcsDirs {
		if !dl.entries[dir] {
			continue
		}
		// Git is not inferred on macOS: the OS ships it (spec §4.1).
		if dir == ".git" && plat != nil && plat.IsMacOS() {
			continue
		}
		reqs = append(reqs, manifest.Requirement{Domain: resolver.ResolveName(domain), Constraint: "*", Source: manifest.SourceInferred})
	}

	for _, gh := range []string{".github/workflows", "action.yml", "action.yaml"} {
		base := filepath.Base(gh)
		if dl.entries[base] {
			reqs = append(reqs, manifest.Requirement{Domain: resolver.ResolveName("gh"), Constraint: "*", Source: manifest.SourceInferred})
		}
	}

	return reqs
}

// parseDotfileVersion reads a single-line version file such as .nvmrc and
// returns the trimmed version constraint it names, defaulting to "*" on an
// empty or unparsable body.
func parseDotfileVersion(data []byte) string {
	s := string(data)
	start, end := 0, len(s)
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	v := s[start:end]
	if v == "" {
		return "*"
	}
	return v
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
