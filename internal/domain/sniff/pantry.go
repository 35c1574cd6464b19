package sniff

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/launchpad-sh/launchpad/internal/domain/manifest"
)

// explicitManifestNames lists the pantry/launchpad/pkgx/deps YAML variants
// recognized in discovery order, per spec §6. Dotfile variants are
// recognized too (e.g. ".dependencies.yaml").
var explicitManifestNames = []string{
	"dependencies.yaml", "dependencies.yml",
	"deps.yaml", "deps.yml",
	"pkgx.yaml", "pkgx.yml",
	"launchpad.yaml", "launchpad.yml",
}

// rawPantry mirrors the abstract pantry YAML schema in spec §6.
type rawPantry struct {
	Dependencies yaml.Node         `yaml:"dependencies"`
	Env          map[string]string `yaml:"env"`
	Global       bool              `yaml:"global"`
	Services     map[string]any    `yaml:"services"`
}

// rawDependencyDetail is the long form of a single dependency entry:
// `domain: {version: "...", global: true}`.
type rawDependencyDetail struct {
	Version string `yaml:"version"`
	Global  *bool  `yaml:"global"`
}

// parsePantryYAML parses the explicit pantry/launchpad/pkgx/deps schema.
// Per spec §4.1, a parse failure never fails the whole sniff: the caller
// treats a non-nil error as "this file contributed nothing" and continues,
// except for ErrInvalidDollarUsage which is fatal (spec §7 "Environment").
func parsePantryYAML(data []byte, resolver manifest.DomainResolver, home, srcroot string) (manifest.SniffResult, error) {
	var raw rawPantry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return manifest.SniffResult{}, fmt.Errorf("sniff: parse pantry yaml: %w", err)
	}

	result := manifest.SniffResult{}
	defaultScope := manifest.ScopeLocal
	if raw.Global {
		defaultScope = manifest.ScopeGlobal
	}

	deps, err := decodeDependencies(raw.Dependencies, resolver, defaultScope)
	if err != nil {
		return manifest.SniffResult{}, err
	}
	for _, d := range deps {
		result.Merge(d)
	}

	for k, v := range raw.Env {
		substituted, err := manifest.SubstituteEnv(v, home, srcroot)
		if err != nil {
			return manifest.SniffResult{}, err
		}
		result.MergeEnv(k, substituted)
	}

	return result, nil
}

// decodeDependencies handles all three shapes spec §6 allows:
// map<domain,string|{version,global?}>, array<string>, or a single string.
func decodeDependencies(node yaml.Node, resolver manifest.DomainResolver, defaultScope manifest.Scope) ([]manifest.Requirement, error) {
	if node.Kind == 0 {
		return nil, nil
	}

	switch node.Kind {
	case yaml.MappingNode:
		var raw map[string]yaml.Node
		if err := node.Decode(&raw); err != nil {
			return nil, fmt.Errorf("sniff: decode dependencies map: %w", err)
		}
		var reqs []manifest.Requirement
		for domain, v := range raw {
			constraint := "*"
			scope := defaultScope
			switch v.Kind {
			case yaml.ScalarNode:
				if err := v.Decode(&constraint); err != nil {
					return nil, fmt.Errorf("sniff: decode dependency %q: %w", domain, err)
				}
			case yaml.MappingNode:
				var detail rawDependencyDetail
				if err := v.Decode(&detail); err != nil {
					return nil, fmt.Errorf("sniff: decode dependency %q: %w", domain, err)
				}
				if detail.Version != "" {
					constraint = detail.Version
				}
				if detail.Global != nil {
					if *detail.Global {
						scope = manifest.ScopeGlobal
					} else {
						scope = manifest.ScopeLocal
					}
				}
			default:
				return nil, fmt.Errorf("sniff: unsupported dependency value for %q", domain)
			}
			reqs = append(reqs, manifest.Requirement{
				Domain:     resolver.ResolveName(domain),
				Constraint: constraint,
				Scope:      scope,
				Source:     manifest.SourceExplicit,
			})
		}
		return reqs, nil

	case yaml.SequenceNode:
		var raw []string
		if err := node.Decode(&raw); err != nil {
			return nil, fmt.Errorf("sniff: decode dependencies array: %w", err)
		}
		reqs := make([]manifest.Requirement, 0, len(raw))
		for _, entry := range raw {
			reqs = append(reqs, manifest.Requirement{
				Domain:     resolver.ResolveName(entry),
				Constraint: "*",
				Scope:      defaultScope,
				Source:     manifest.SourceExplicit,
			})
		}
		return reqs, nil

	case yaml.ScalarNode:
		var raw string
		if err := node.Decode(&raw); err != nil {
			return nil, fmt.Errorf("sniff: decode dependencies scalar: %w", err)
		}
		return []manifest.Requirement{{
			Domain:     resolver.ResolveName(raw),
			Constraint: "*",
			Scope:      defaultScope,
			Source:     manifest.SourceExplicit,
		}}, nil

	default:
		return nil, fmt.Errorf("sniff: unsupported dependencies node kind %v", node.Kind)
	}
}
