package main

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/launchpad-sh/launchpad/internal/adapters/logging"
	"github.com/launchpad-sh/launchpad/internal/app"
	"github.com/launchpad-sh/launchpad/internal/domain/download"
	"github.com/launchpad-sh/launchpad/internal/domain/envroot"
	"github.com/launchpad-sh/launchpad/internal/domain/platform"
	"github.com/launchpad-sh/launchpad/internal/domain/registry"
	"github.com/launchpad-sh/launchpad/internal/domain/resolve"
	"github.com/launchpad-sh/launchpad/internal/domain/settings"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

// resolveMode maps the --mode flag (intent, locked, frozen) onto the
// resolver's two-way strictness gate (spec §4.3): intent and locked both
// fall back to the registry when the lockfile has no entry, frozen does
// not.
func resolveMode(flag string) resolve.Mode {
	if flag == "frozen" {
		return resolve.ModeFrozen
	}
	return resolve.ModeNormal
}

// buildInstaller wires every adapter the Installer needs from real
// environment state: the actual filesystem, a real subprocess runner, the
// detected platform, user-level settings, and a console logger gated by
// --verbose.
func buildInstaller() (*app.Installer, error) {
	return buildInstallerWithProgress(nil)
}

// buildInstallerWithProgress is buildInstaller with an optional download
// progress hook, used by commands that render a progress view.
func buildInstallerWithProgress(progress download.ProgressFunc) (*app.Installer, error) {
	plat, err := platform.Detect()
	if err != nil {
		return nil, err
	}

	cfgPath := cfgFile
	if cfgPath == "" {
		cfgPath = settings.ConfigPath()
	}
	cfg, err := settings.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	level := ports.LevelInfo
	if verbose || os.Getenv("LAUNCHPAD_VERBOSE") != "" {
		level = ports.LevelDebug
	}
	logger := logging.NewConsoleLogger(logging.WithLevel(level))

	fs := ports.NewRealFileSystem()
	runner := ports.NewRealCommandRunner()

	httpClient := &http.Client{Timeout: 15 * time.Second}
	reg := registry.New(registry.Config{})

	engine := download.New(fs, download.Config{
		MaxConcurrent:       cfg.MaxConcurrent,
		MaxRetries:          cfg.MaxRetries,
		InitialRetryDelayMs: cfg.InitialRetryDelayMs,
		Client:              httpClient,
		Progress:            progress,
	})

	cacheDir := filepath.Join(envroot.DataHome(), "launchpad", "cache")

	return app.New(app.Config{
		FS:               fs,
		Runner:           runner,
		Logger:           logger,
		Platform:         plat,
		Registry:         reg,
		Engine:           engine,
		Mode:             resolveMode(mode),
		Strategy:         resolve.StrategyHighestCompatible,
		Home:             os.Getenv("HOME"),
		CacheDir:         cacheDir,
		GlobalEnvRoot:    envroot.GlobalEnvPath(),
		InstallerCommand: "launchpad install",
	}), nil
}
