package sniff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpad-sh/launchpad/internal/domain/manifest"
	"github.com/launchpad-sh/launchpad/internal/domain/platform"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

func newTestSniffer(fs ports.FileSystem) *Sniffer {
	plat := platform.New(platform.OSLinux, "amd64")
	return New(fs, manifest.IdentityResolver{}, plat, "/home/u", "/proj")
}

func TestSniff_ExplicitPantryYAML(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/dependencies.yaml", "dependencies:\n  nodejs.org: \"^22\"\nenv:\n  FOO: \"{{home}}/bin\"\n")

	s := newTestSniffer(fs)
	result, err := s.Sniff("/proj")
	require.NoError(t, err)

	require.Len(t, result.Packages, 1)
	assert.Equal(t, "nodejs.org", result.Packages[0].Domain)
	assert.Equal(t, "^22", result.Packages[0].Constraint)
	assert.Equal(t, manifest.SourceExplicit, result.Packages[0].Source)
	assert.Equal(t, "/home/u/bin", result.Env["FOO"])
}

func TestSniff_NodeBunMutualExclusion(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/package.json", `{"packageManager":"bun@1.1.0"}`)

	s := newTestSniffer(fs)
	result, err := s.Sniff("/proj")
	require.NoError(t, err)

	require.Len(t, result.Packages, 1)
	assert.Equal(t, "bun", result.Packages[0].Domain)
	assert.False(t, result.HasDomain("node"))
}

func TestSniff_NodeInferredWithoutExplicitOrBun(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/package.json", `{"name":"app"}`)

	s := newTestSniffer(fs)
	result, err := s.Sniff("/proj")
	require.NoError(t, err)

	require.Len(t, result.Packages, 1)
	assert.Equal(t, "node", result.Packages[0].Domain)
	assert.Equal(t, "^22", result.Packages[0].Constraint)
	assert.Equal(t, manifest.SourceInferred, result.Packages[0].Source)
}

func TestSniff_NodeSuppressedByBunLock(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/package.json", `{}`)
	fs.AddFile("/proj/bun.lock", "")

	s := newTestSniffer(fs)
	result, err := s.Sniff("/proj")
	require.NoError(t, err)

	assert.False(t, result.HasDomain("node"))
	assert.True(t, result.HasDomain("bun"))
}

func TestSniff_NodeSuppressedByExplicitManifest(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/package.json", `{}`)
	fs.AddFile("/proj/dependencies.yaml", "dependencies:\n  python.org: \"*\"\n")

	s := newTestSniffer(fs)
	result, err := s.Sniff("/proj")
	require.NoError(t, err)

	assert.False(t, result.HasDomain("node"))
	assert.True(t, result.HasDomain("python.org"))
}

func TestSniff_GitNotInferredOnMacOS(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.MkdirAll("/proj/.git", 0o755)

	plat := platform.New(platform.OSDarwin, "arm64")
	s := New(fs, manifest.IdentityResolver{}, plat, "/home/u", "/proj")
	result, err := s.Sniff("/proj")
	require.NoError(t, err)

	assert.False(t, result.HasDomain("git-scm.org"))
}

func TestSniff_GitInferredOnLinux(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.MkdirAll("/proj/.git", 0o755)

	s := newTestSniffer(fs)
	result, err := s.Sniff("/proj")
	require.NoError(t, err)

	assert.True(t, result.HasDomain("git-scm.org"))
}

func TestSniff_NvmrcConstraint(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/.nvmrc", "18.20.0\n")

	s := newTestSniffer(fs)
	result, err := s.Sniff("/proj")
	require.NoError(t, err)

	require.True(t, result.HasDomain("node"))
	for _, p := range result.Packages {
		if p.Domain == "node" {
			assert.Equal(t, "18.20.0", p.Constraint)
		}
	}
}

func TestSniff_FatalDollarUsage(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/dependencies.yaml", "dependencies:\n  redis.io: \"*\"\nenv:\n  PRICE: \"cost $5\"\n")

	s := newTestSniffer(fs)
	_, err := s.Sniff("/proj")
	require.Error(t, err)
	assert.IsType(t, &manifest.ErrInvalidDollarUsage{}, err)
}

func TestSniff_NpmrcRegistry(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/.npmrc", "registry=https://registry.example.com/\n")

	s := newTestSniffer(fs)
	result, err := s.Sniff("/proj")
	require.NoError(t, err)
	assert.Equal(t, "https://registry.example.com/", result.Env["npm_config_registry"])
}

func TestSniff_MalformedYAMLContributesNothing(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/dependencies.yaml", "dependencies: [this is: not valid\n")

	s := newTestSniffer(fs)
	result, err := s.Sniff("/proj")
	require.NoError(t, err)
	assert.Empty(t, result.Packages)
}

func TestFindProjectRoot(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.MkdirAll("/proj/sub/dir", 0o755)
	fs.AddFile("/proj/go.mod", "module x\n")

	root, ok := FindProjectRoot(fs, "/proj/sub/dir")
	require.True(t, ok)
	assert.Equal(t, "/proj", root)
}

func TestFindProjectRoot_NotFound(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/tmp/a/b", 0o755)

	_, ok := FindProjectRoot(fs, "/tmp/a/b")
	assert.False(t, ok)
}

func TestSniff_CargoTomlRustVersionBecomesCaretConstraint(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/Cargo.toml", "[package]\nname = \"demo\"\nrust-version = \"1.74\"\n")

	s := newTestSniffer(fs)
	result, err := s.Sniff("/proj")
	require.NoError(t, err)

	require.Len(t, result.Packages, 1)
	assert.Equal(t, "rust", result.Packages[0].Domain)
	assert.Equal(t, "^1.74", result.Packages[0].Constraint)
}

func TestSniff_CargoTomlWithoutRustVersionIsWildcard(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.MkdirAll("/proj", 0o755)
	fs.AddFile("/proj/Cargo.toml", "[package]\nname = \"demo\"\n")

	s := newTestSniffer(fs)
	result, err := s.Sniff("/proj")
	require.NoError(t, err)

	require.Len(t, result.Packages, 1)
	assert.Equal(t, "*", result.Packages[0].Constraint)
}
