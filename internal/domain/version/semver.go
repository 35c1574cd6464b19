// Package version implements the SemVer value object and the VersionRange
// tagged union from spec.md §3 and §9's design note, plus the npm-compatible
// satisfaction semantics from §4.3.
package version

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// SemVer is a parsed version. Non-numeric suffixes (e.g. OpenSSL's
// "1.1.1w") are preserved verbatim rather than rejected, per spec §4.2/§4.3:
// "non-semver suffixes ... are preserved as-is and compared by digit-prefix
// numeric extraction per component".
type SemVer struct {
	Major, Minor, Patch int
	// PatchSuffix holds any non-numeric tail attached to the patch
	// component (e.g. "w" in "1.1.1w", or "-beta.1" in "2.0.0-beta.1").
	PatchSuffix string
	Raw         string
}

var versionPattern = regexp.MustCompile(`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(.*)$`)

// Parse parses a version string into a SemVer. A bare major ("22") expands
// to "22.0.0" per spec §4.2. Leading constraint-operator characters must
// already be stripped by the caller (see ParseRange).
func Parse(raw string) (SemVer, error) {
	trimmed := strings.TrimSpace(raw)
	m := versionPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return SemVer{}, fmt.Errorf("version: cannot parse %q", raw)
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return SemVer{}, fmt.Errorf("version: invalid major in %q: %w", raw, err)
	}
	minor := 0
	if m[2] != "" {
		minor, err = strconv.Atoi(m[2])
		if err != nil {
			return SemVer{}, fmt.Errorf("version: invalid minor in %q: %w", raw, err)
		}
	}
	patch := 0
	suffix := m[4]
	if m[3] != "" {
		patch, err = strconv.Atoi(m[3])
		if err != nil {
			return SemVer{}, fmt.Errorf("version: invalid patch in %q: %w", raw, err)
		}
	}

	return SemVer{Major: major, Minor: minor, Patch: patch, PatchSuffix: suffix, Raw: trimmed}, nil
}

// String renders the canonical "MAJOR.MINOR.PATCH[suffix]" form.
func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d%s", v.Major, v.Minor, v.Patch, v.PatchSuffix)
}

// IsPureNumeric reports whether the version has no non-numeric suffix, in
// which case comparison can delegate to golang.org/x/mod/semver.
func (v SemVer) IsPureNumeric() bool {
	return v.PatchSuffix == ""
}

// canonical returns the "vMAJOR.MINOR.PATCH" form x/mod/semver expects.
func (v SemVer) canonical() string {
	return "v" + fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// digitPrefixSplit splits a suffix like "w" or "-beta.12" into its leading
// run of digits (if any) and the remaining text, per the digit-prefix
// numeric extraction rule in spec §4.3.
func digitPrefixSplit(s string) (digits string, rest string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}

// compareSuffix compares two patch suffixes: numeric prefixes compare
// numerically first, then the remaining text compares lexicographically —
// spec §4.3: "Non-numeric version suffixes compare lexicographically only
// after their numeric prefix ties."
func compareSuffix(a, b string) int {
	if a == b {
		return 0
	}
	aDigits, aRest := digitPrefixSplit(a)
	bDigits, bRest := digitPrefixSplit(b)

	an, aErr := strconv.Atoi(aDigits)
	bn, bErr := strconv.Atoi(bDigits)
	if aErr == nil && bErr == nil && an != bn {
		return cmpInt(an, bn)
	}

	if aRest == bRest {
		return 0
	}
	if aRest < bRest {
		return -1
	}
	return 1
}

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater than
// other, implementing spec §4.3's comparison semantics.
func Compare(v, other SemVer) int {
	if v.IsPureNumeric() && other.IsPureNumeric() {
		return semver.Compare(v.canonical(), other.canonical())
	}

	if v.Major != other.Major {
		return cmpInt(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return cmpInt(v.Minor, other.Minor)
	}
	if v.Patch != other.Patch {
		return cmpInt(v.Patch, other.Patch)
	}
	return compareSuffix(v.PatchSuffix, other.PatchSuffix)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// LessThan reports whether v sorts before other.
func LessThan(v, other SemVer) bool { return Compare(v, other) < 0 }

// Equal reports whether v and other compare equal.
func Equal(v, other SemVer) bool { return Compare(v, other) == 0 }

// SortDescending sorts versions newest-first, matching registry.Versions'
// contract in spec §4.2.
func SortDescending(versions []SemVer) {
	sort.Slice(versions, func(i, j int) bool {
		return Compare(versions[i], versions[j]) > 0
	})
}
