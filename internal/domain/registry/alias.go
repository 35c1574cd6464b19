package registry

import (
	_ "embed"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// foldCase normalizes an alias key for lookup. x/text/cases.Fold is used
// instead of strings.ToLower so non-ASCII alias names (unlikely today, but
// the table is user-extensible via LoadOverrides) fold correctly too.
var foldCase = cases.Fold()

func normalizeAlias(s string) string {
	return foldCase.String(s)
}

// aliasTableYAML is the hand-maintained default alias table, loaded as
// data rather than code per spec §9's design note. Overrides layer on top
// at runtime via LoadOverrides.
//
//go:embed aliases.yaml
var aliasTableYAML []byte

// AliasTable maps user-friendly package names to canonical registry
// domains. Case-insensitive on lookup.
type AliasTable struct {
	entries map[string]string
}

// DefaultAliasTable parses the embedded alias data. Panics only on a
// programmer error (malformed embedded YAML shipped with the binary).
func DefaultAliasTable() *AliasTable {
	t, err := newAliasTableFromYAML(aliasTableYAML)
	if err != nil {
		panic("registry: embedded alias table is malformed: " + err.Error())
	}
	return t
}

func newAliasTableFromYAML(data []byte) (*AliasTable, error) {
	raw := make(map[string]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	entries := make(map[string]string, len(raw))
	for k, v := range raw {
		entries[normalizeAlias(k)] = v
	}
	return &AliasTable{entries: entries}, nil
}

// LoadOverrides merges a user-supplied override file (same map<alias,domain>
// shape) on top of the table, taking precedence over built-in entries.
func (t *AliasTable) LoadOverrides(data []byte) error {
	overrides := make(map[string]string)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return err
	}
	for k, v := range overrides {
		t.entries[normalizeAlias(k)] = v
	}
	return nil
}

// ResolveName maps alias to its canonical domain. Unrecognized aliases are
// returned unchanged: a bare domain (e.g. "nodejs.org") is already valid
// input, and an unknown short name is treated as a literal domain so the
// registry can still attempt to serve it.
func (t *AliasTable) ResolveName(alias string) string {
	if domain, ok := t.entries[normalizeAlias(alias)]; ok {
		return domain
	}
	return alias
}
