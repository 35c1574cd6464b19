package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpad-sh/launchpad/internal/domain/download"
	"github.com/launchpad-sh/launchpad/internal/domain/envroot"
	"github.com/launchpad-sh/launchpad/internal/domain/platform"
	"github.com/launchpad-sh/launchpad/internal/domain/ready"
	"github.com/launchpad-sh/launchpad/internal/domain/registry"
	"github.com/launchpad-sh/launchpad/internal/domain/resolve"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

func TestInstaller_StatusReportsSatisfiedWithoutInstalling(t *testing.T) {
	body := buildTestTarGz(t, map[string]string{"bin/testprog": "binary-content"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	projectDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "dependencies.yaml"), []byte("dependencies:\n  testdomain: \"^1.0\"\n"), 0o644))

	fs := ports.NewRealFileSystem()
	plat := platform.New(platform.OSLinux, "amd64")
	cfg := Config{
		FS:            fs,
		Runner:        ports.NewMockCommandRunner(),
		Platform:      plat,
		Registry:      registry.New(registry.Config{BaseURL: srv.URL}),
		Engine:        download.New(fs, download.Config{}),
		Mode:          resolve.ModeNormal,
		Strategy:      resolve.StrategyHighestCompatible,
		Home:          "/home/u",
		CacheDir:      t.TempDir(),
		GlobalEnvRoot: envroot.GlobalEnvPath(),
	}

	installer := New(cfg)

	// Before any install, the requirement is not yet satisfied.
	before, err := installer.Status(context.Background(), projectDir)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.False(t, before[0].Readiness.Satisfied)

	_, err = installer.Install(context.Background(), projectDir)
	require.NoError(t, err)

	after, err := installer.Status(context.Background(), projectDir)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "testdomain", after[0].Requirement.Domain)
	assert.True(t, after[0].Readiness.Satisfied)
	assert.Equal(t, ready.ScopeThisEnv, after[0].Readiness.Scope)
	assert.Equal(t, "1.0.0", after[0].Readiness.Version.String())
}
