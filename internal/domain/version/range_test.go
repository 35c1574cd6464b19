package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) SemVer {
	t.Helper()
	v, err := Parse(raw)
	require.NoError(t, err)
	return v
}

func TestParseRange_Caret(t *testing.T) {
	t.Parallel()
	r, err := ParseRange("^22")
	require.NoError(t, err)

	assert.True(t, r.Satisfies(mustParse(t, "22.4.1")))
	assert.True(t, r.Satisfies(mustParse(t, "22.0.0")))
	assert.False(t, r.Satisfies(mustParse(t, "21.7.3")))
	assert.False(t, r.Satisfies(mustParse(t, "23.0.0")))
}

func TestParseRange_Tilde(t *testing.T) {
	t.Parallel()
	r, err := ParseRange("~1.2.3")
	require.NoError(t, err)

	assert.True(t, r.Satisfies(mustParse(t, "1.2.9")))
	assert.False(t, r.Satisfies(mustParse(t, "1.3.0")))
	assert.False(t, r.Satisfies(mustParse(t, "1.2.2")))
}

func TestParseRange_Comparison(t *testing.T) {
	t.Parallel()

	r, err := ParseRange(">=1.2.0")
	require.NoError(t, err)
	assert.True(t, r.Satisfies(mustParse(t, "1.2.0")))
	assert.True(t, r.Satisfies(mustParse(t, "2.0.0")))
	assert.False(t, r.Satisfies(mustParse(t, "1.1.9")))

	r, err = ParseRange("<2.0.0")
	require.NoError(t, err)
	assert.True(t, r.Satisfies(mustParse(t, "1.9.9")))
	assert.False(t, r.Satisfies(mustParse(t, "2.0.0")))
}

func TestParseRange_HyphenRange(t *testing.T) {
	t.Parallel()
	r, err := ParseRange("1.2.0 - 1.5.0")
	require.NoError(t, err)
	assert.True(t, r.Satisfies(mustParse(t, "1.2.0")))
	assert.True(t, r.Satisfies(mustParse(t, "1.5.0")))
	assert.True(t, r.Satisfies(mustParse(t, "1.3.7")))
	assert.False(t, r.Satisfies(mustParse(t, "1.5.1")))
}

func TestParseRange_Wildcard(t *testing.T) {
	t.Parallel()

	r, err := ParseRange("*")
	require.NoError(t, err)
	assert.True(t, r.Satisfies(mustParse(t, "0.0.1")))

	r, err = ParseRange("latest")
	require.NoError(t, err)
	assert.True(t, r.Satisfies(mustParse(t, "99.0.0")))

	r, err = ParseRange("22.x")
	require.NoError(t, err)
	assert.True(t, r.Satisfies(mustParse(t, "22.9.9")))
	assert.False(t, r.Satisfies(mustParse(t, "21.9.9")))

	r, err = ParseRange("22.4.x")
	require.NoError(t, err)
	assert.True(t, r.Satisfies(mustParse(t, "22.4.9")))
	assert.False(t, r.Satisfies(mustParse(t, "22.5.0")))
}

func TestParseRange_Or(t *testing.T) {
	t.Parallel()
	r, err := ParseRange("^1.0.0 || ^2.0.0")
	require.NoError(t, err)
	assert.True(t, r.Satisfies(mustParse(t, "1.5.0")))
	assert.True(t, r.Satisfies(mustParse(t, "2.5.0")))
	assert.False(t, r.Satisfies(mustParse(t, "3.0.0")))
}

func TestParseRange_Exact(t *testing.T) {
	t.Parallel()
	r, err := ParseRange("1.2.3")
	require.NoError(t, err)
	assert.True(t, r.Satisfies(mustParse(t, "1.2.3")))
	assert.False(t, r.Satisfies(mustParse(t, "1.2.4")))
}

func TestCompare_NonNumericSuffix(t *testing.T) {
	t.Parallel()

	// OpenSSL-style "1.1.1w" vs "1.1.1v": numeric prefix ties (patch=1),
	// so suffixes compare — digit-prefix extraction then lexicographic.
	a := mustParse(t, "1.1.1w")
	b := mustParse(t, "1.1.1v")
	assert.True(t, Compare(a, b) > 0)
	assert.True(t, Compare(b, a) < 0)
	assert.Equal(t, 0, Compare(a, a))
}

func TestStripConstraintPrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"^22.1.0": "22.1.0",
		"~1.2.3":  "1.2.3",
		"v1.2.3":  "1.2.3",
		">=1.0.0": "1.0.0",
		"22":      "22",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripConstraintPrefix(in))
	}
}

func TestSortDescending(t *testing.T) {
	t.Parallel()
	versions := []SemVer{
		mustParse(t, "20.11.0"),
		mustParse(t, "22.4.1"),
		mustParse(t, "21.7.3"),
		mustParse(t, "22.1.0"),
	}
	SortDescending(versions)
	want := []string{"22.4.1", "22.1.0", "21.7.3", "20.11.0"}
	for i, v := range versions {
		assert.Equal(t, want[i], v.String())
	}
}
