package lockfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpad-sh/launchpad/internal/ports"
)

func TestLockfile_WriteThenLoad(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	l := New("/proj/pantry.lock")
	l.Put(Entry{Name: "nodejs.org", Version: "22.4.1", Resolved: "https://dist.pkgx.dev/nodejs.org/v22.4.1.tar.xz", Integrity: "sha256:abc"})

	require.NoError(t, l.Write(fs))

	loaded, err := Load(fs, "/proj/pantry.lock")
	require.NoError(t, err)

	entry, ok := loaded.Locked("nodejs.org")
	require.True(t, ok)
	assert.Equal(t, "22.4.1", entry.Version.String())
	assert.Equal(t, "https://dist.pkgx.dev/nodejs.org/v22.4.1.tar.xz", entry.ResolvedURL)
}

func TestLockfile_LoadMissingFileReturnsEmpty(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	l, err := Load(fs, "/proj/pantry.lock")
	require.NoError(t, err)
	assert.Empty(t, l.Packages())
}

func TestLockfile_Validate(t *testing.T) {
	t.Parallel()

	l := New("/proj/pantry.lock")
	l.Put(Entry{Name: "nodejs.org", Version: "22.4.1", Resolved: "url"})
	l.Put(Entry{Name: "redis.io", Version: "7.2.0", Resolved: "url"})

	report := l.Validate(map[string]string{
		"nodejs.org": "22.1.0",
	})

	assert.Contains(t, report.VersionMismatch, "nodejs.org@22.4.1")
	assert.Contains(t, report.Missing, "redis.io@7.2.0")
}

func TestLockfile_MigratesV0(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.AddFile("/proj/pantry.lock", `{"packages":{"nodejs.org@22.4.1":{"name":"nodejs.org","version":"22.4.1","resolved":"url"}}}`)

	l, err := Load(fs, "/proj/pantry.lock")
	require.NoError(t, err)
	_, ok := l.Locked("nodejs.org")
	assert.True(t, ok)
}
