// Package lperr defines the user-facing error shape shared across
// Launchpad's pipeline stages, and the error kinds from spec §7.
package lperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes an error per spec §7's error handling design.
type Kind string

const (
	// KindParse covers unreadable or malformed manifests. Never fatal to
	// the overall sniff; the offending file simply contributes nothing.
	KindParse Kind = "parse"
	// KindResolution covers a constraint no version satisfies, or a
	// frozen-mode lockfile miss. Fatal for that package.
	KindResolution Kind = "resolution"
	// KindTransport covers network timeouts, resets, and 4xx/5xx.
	KindTransport Kind = "transport"
	// KindIntegrity covers checksum or archive validation failures.
	KindIntegrity Kind = "integrity"
	// KindDisk covers file/symlink creation or write failures.
	KindDisk Kind = "disk"
	// KindRelocation covers a relocator subprocess failure. Warned, not
	// fatal — the package may still run via system fallbacks.
	KindRelocation Kind = "relocation"
	// KindEnvironment covers invalid "$" usage in a sniffed env block.
	// Fatal at sniff time.
	KindEnvironment Kind = "environment"
)

// UserError is a user-friendly error carrying an actionable suggestion.
// Mirrors the teacher's config.UserError shape, generalized beyond config.
type UserError struct {
	Kind       Kind
	Message    string
	Context    string
	Suggestion string
	Underlying error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, " (at %s)", e.Context)
	}
	return b.String()
}

// Unwrap supports errors.Is/errors.As against the underlying error.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is compares by Kind so callers can check errors.Is(err, &UserError{Kind: KindIntegrity}).
func (e *UserError) Is(target error) bool {
	var t *UserError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds a UserError of the given kind.
func New(kind Kind, message string) *UserError {
	return &UserError{Kind: kind, Message: message}
}

// Wrap builds a UserError of the given kind wrapping an underlying error.
func Wrap(kind Kind, message string, underlying error) *UserError {
	return &UserError{Kind: kind, Message: message, Underlying: underlying}
}

// WithContext returns a copy of e with Context set.
func (e *UserError) WithContext(context string) *UserError {
	c := *e
	c.Context = context
	return &c
}

// WithSuggestion returns a copy of e with Suggestion set.
func (e *UserError) WithSuggestion(suggestion string) *UserError {
	c := *e
	c.Suggestion = suggestion
	return &c
}

// ErrChecksumMismatch is a fatal, non-retried integrity error (spec §4.5).
var ErrChecksumMismatch = New(KindIntegrity, "checksum mismatch")

// ErrCorruptArchive is raised when an archive cannot be fully indexed or
// contains zero entries (spec §4.6).
var ErrCorruptArchive = New(KindIntegrity, "corrupt archive")
