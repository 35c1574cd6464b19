package ready

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpad-sh/launchpad/internal/domain/manifest"
	"github.com/launchpad-sh/launchpad/internal/domain/version"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

type fakeVersionSource struct {
	byDomain map[string][]string
}

func (f fakeVersionSource) Versions(ctx context.Context, domain string) ([]version.SemVer, error) {
	var out []version.SemVer
	for _, raw := range f.byDomain[domain] {
		v, err := version.Parse(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func TestCheck_SatisfiedInThisEnv(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.AddFile("/env/nodejs.org/v22.4.1/bin/node", "bin")

	o := New(fs, ports.NewMockCommandRunner(), nil)
	status, err := o.Check(context.Background(), "proj", "/env", "/global", 1,
		manifest.Requirement{Domain: "nodejs.org", Constraint: "^22"})
	require.NoError(t, err)
	assert.True(t, status.Satisfied)
	assert.Equal(t, ScopeThisEnv, status.Scope)
	assert.Equal(t, "22.4.1", status.Version.String())
}

func TestCheck_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.AddFile("/global/nodejs.org/v22.4.1/bin/node", "bin")

	o := New(fs, ports.NewMockCommandRunner(), nil)
	status, err := o.Check(context.Background(), "proj", "/env", "/global", 1,
		manifest.Requirement{Domain: "nodejs.org", Constraint: "^22"})
	require.NoError(t, err)
	assert.True(t, status.Satisfied)
	assert.Equal(t, ScopeGlobal, status.Scope)
}

func TestCheck_FallsBackToSystem(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	runner := ports.NewMockCommandRunner()
	runner.AddResult("node", []string{"--version"}, ports.CommandResult{ExitCode: 0, Stdout: "v22.4.1\n"})

	o := New(fs, runner, nil)
	status, err := o.Check(context.Background(), "proj", "/env", "/global", 1,
		manifest.Requirement{Domain: "nodejs.org", Constraint: "^22"})
	require.NoError(t, err)
	assert.True(t, status.Satisfied)
	assert.Equal(t, ScopeSystem, status.Scope)
}

func TestCheck_SystemSatisfactionNeverOutdated(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	runner := ports.NewMockCommandRunner()
	runner.AddResult("node", []string{"--version"}, ports.CommandResult{ExitCode: 0, Stdout: "v20.11.0\n"})

	versions := fakeVersionSource{byDomain: map[string][]string{"nodejs.org": {"22.4.1", "20.11.0"}}}
	o := New(fs, runner, versions)
	status, err := o.Check(context.Background(), "proj", "/env", "/global", 1,
		manifest.Requirement{Domain: "nodejs.org", Constraint: "*"})
	require.NoError(t, err)
	assert.True(t, status.Satisfied)
	assert.Equal(t, ScopeSystem, status.Scope)
	assert.False(t, status.Outdated)
}

func TestCheck_ThisEnvOutdatedWhenNewerExists(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.AddFile("/env/nodejs.org/v20.11.0/bin/node", "bin")

	versions := fakeVersionSource{byDomain: map[string][]string{"nodejs.org": {"22.4.1", "20.11.0"}}}
	o := New(fs, ports.NewMockCommandRunner(), versions)
	status, err := o.Check(context.Background(), "proj", "/env", "/global", 1,
		manifest.Requirement{Domain: "nodejs.org", Constraint: "*"})
	require.NoError(t, err)
	assert.True(t, status.Satisfied)
	assert.True(t, status.Outdated)
	assert.Equal(t, "22.4.1", status.Newest.String())
}

func TestCheck_NotSatisfiedWhenNothingMatches(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	o := New(fs, ports.NewMockCommandRunner(), nil)
	status, err := o.Check(context.Background(), "proj", "/env", "/global", 1,
		manifest.Requirement{Domain: "nodejs.org", Constraint: "^22"})
	require.NoError(t, err)
	assert.False(t, status.Satisfied)
	assert.Equal(t, ScopeNone, status.Scope)
}

func TestCheck_CachesPositiveResult(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.AddFile("/env/nodejs.org/v22.4.1/bin/node", "bin")

	o := New(fs, ports.NewMockCommandRunner(), nil)
	req := manifest.Requirement{Domain: "nodejs.org", Constraint: "^22"}
	_, err := o.Check(context.Background(), "proj", "/env", "/global", 1, req)
	require.NoError(t, err)

	// Remove the installed package; a cached hit should still report satisfied.
	require.NoError(t, fs.RemoveAll("/env/nodejs.org"))
	status, err := o.Check(context.Background(), "proj", "/env", "/global", 1, req)
	require.NoError(t, err)
	assert.True(t, status.Satisfied)
}
