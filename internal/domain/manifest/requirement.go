// Package manifest defines the data model shared by the sniffer and the
// resolver: package requirements and sniff results, per spec.md §3.
package manifest

import (
	"fmt"
	"strings"
)

// Scope says whether a requirement's binaries should be installed only
// into the project environment, or also exposed globally via stubs.
type Scope string

const (
	ScopeLocal  Scope = "local"
	ScopeGlobal Scope = "global"
)

// Source says whether a requirement came from an explicit manifest entry
// or was inferred from a project-signal file.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceInferred Source = "inferred"
)

// Requirement is a single package constraint discovered by the sniffer.
// Invariant (spec §3): Constraint is always a normalized string (or "*"),
// never an unresolved object-typed manifest value.
type Requirement struct {
	Domain     string
	Constraint string
	Scope      Scope
	Source     Source
}

// Key identifies the domain this requirement is about, for deduplication
// and conflict-policy bucketing (spec §4.3).
func (r Requirement) Key() string {
	return r.Domain
}

// String renders "domain@constraint" for logs and error messages.
func (r Requirement) String() string {
	return fmt.Sprintf("%s@%s", r.Domain, r.Constraint)
}

// specificityRank orders constraint shapes from least to most specific,
// per spec §4.1: "within one class the more specific constraint wins
// (exact > non-wildcard range > *)".
func specificityRank(constraint string) int {
	switch {
	case constraint == "" || constraint == "*" || constraint == "latest" || constraint == "x" || constraint == "X":
		return 0
	case isRangeLike(constraint):
		return 1
	default:
		return 2 // exact version
	}
}

func isRangeLike(c string) bool {
	for _, prefix := range []string{"^", "~", ">=", "<=", ">", "<"} {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			return true
		}
	}
	if strings.Contains(c, " - ") || strings.Contains(c, "||") {
		return true
	}
	for _, part := range strings.Split(c, ".") {
		if part == "x" || part == "X" || part == "*" {
			return true
		}
	}
	return false
}

// MoreSpecificThan reports whether r should win over other under spec
// §4.1's conflict policy: explicit beats inferred; within the same class,
// more specific constraints win.
func (r Requirement) MoreSpecificThan(other Requirement) bool {
	if r.Source != other.Source {
		return r.Source == SourceExplicit
	}
	return specificityRank(r.Constraint) > specificityRank(other.Constraint)
}

// SniffResult is the sniffer's output (spec §3): deduplicated requirements
// tagged explicit/inferred and local/global, plus an env-variable map.
type SniffResult struct {
	Packages []Requirement
	Env      map[string]string
}

// Merge folds in a requirement from one more manifest file, applying the
// "explicit over inferred, more specific wins" conflict rule per-domain.
// A later call for the same domain replaces the existing entry when it is
// explicit over inferred, or of the same source and at least as specific;
// a less specific one is dropped, so "newer YAML wins" ties favor whichever
// call site calls Merge last (spec §9's open
// question: "explicit > inferred, newer YAML wins").
func (s *SniffResult) Merge(req Requirement) {
	for i, existing := range s.Packages {
		if existing.Domain == req.Domain {
			switch {
			case req.Source == SourceExplicit && existing.Source == SourceInferred:
				s.Packages[i] = req
			case req.Source == existing.Source && specificityRank(req.Constraint) >= specificityRank(existing.Constraint):
				s.Packages[i] = req
			}
			return
		}
	}
	s.Packages = append(s.Packages, req)
}

// MergeEnv adds an env key/value, later sources overriding earlier ones.
func (s *SniffResult) MergeEnv(key, value string) {
	if s.Env == nil {
		s.Env = make(map[string]string)
	}
	s.Env[key] = value
}

// HasDomain reports whether a requirement for domain is already present.
func (s *SniffResult) HasDomain(domain string) bool {
	for _, r := range s.Packages {
		if r.Domain == domain {
			return true
		}
	}
	return false
}
