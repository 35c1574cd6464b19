// Package relocate rewrites Mach-O dynamic-linker references in freshly
// extracted macOS packages so they resolve from the environment root
// instead of their original build prefix, per spec.md §4.7. A no-op on
// every other platform.
package relocate

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
	"github.com/launchpad-sh/launchpad/internal/domain/platform"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

// systemPrefixes never get rewritten: the loader resolves them from the OS
// image itself (spec §4.7 step 2).
var systemPrefixes = []string{"/usr/lib/", "/System/Library/", "/Library/Apple/"}

// Warning describes a single non-fatal relocation failure (spec §7:
// "Relocation ... Warned per file, non-fatal").
type Warning struct {
	File string
	Err  error
}

// Relocator rewrites load-command references and re-signs binaries.
type Relocator struct {
	runner ports.CommandRunner
	plat   *platform.Platform
}

// New builds a Relocator bound to plat, which gates every operation to a
// no-op off macOS.
func New(runner ports.CommandRunner, plat *platform.Platform) *Relocator {
	return &Relocator{runner: runner, plat: plat}
}

// Relocate rewrites every executable under packageRoot/bin and every
// .dylib under packageRoot/lib, then adds rpaths and re-signs. libPoolDir
// is the environment's flattened lib/ pool (ENV/lib); globalLibDir is the
// second rpath entry, "<HOME>/.pantry/global" as the installer passes it.
func (r *Relocator) Relocate(ctx context.Context, packageRoot, libPoolDir, globalLibDir string) []Warning {
	if r.plat == nil || !r.plat.IsMacOS() {
		return nil
	}

	var warnings []Warning
	targets := append(globFiles(packageRoot, "bin"), globFiles(packageRoot, "lib")...)

	for _, file := range targets {
		if err := r.rewriteReferences(ctx, file, libPoolDir); err != nil {
			warnings = append(warnings, Warning{File: file, Err: err})
			continue
		}
		if strings.HasSuffix(file, ".dylib") {
			if err := r.fixInstallName(ctx, file, libPoolDir); err != nil {
				warnings = append(warnings, Warning{File: file, Err: err})
			}
		}
		if err := r.addRpaths(ctx, file, packageRoot, globalLibDir); err != nil {
			warnings = append(warnings, Warning{File: file, Err: err})
		}
		if err := r.resign(ctx, file); err != nil {
			warnings = append(warnings, Warning{File: file, Err: err})
		}
	}

	return warnings
}

// rewriteReferences enumerates load commands via `otool -L` and rewrites
// every @rpath or non-system absolute reference whose basename exists in
// libPoolDir (spec §4.7 steps 1–2).
func (r *Relocator) rewriteReferences(ctx context.Context, file, libPoolDir string) error {
	res, err := r.runner.Run(ctx, "otool", "-L", file)
	if err != nil || !res.Success() {
		return lperr.Wrap(lperr.KindRelocation, "otool -L failed", err).WithContext(file)
	}

	for _, line := range strings.Split(res.Stdout, "\n") {
		ref := parseOtoolRef(line)
		if ref == "" || !needsRewrite(ref) {
			continue
		}
		candidate := filepath.Join(libPoolDir, filepath.Base(ref))
		if !pathExists(ctx, r.runner, candidate) {
			continue
		}
		if _, err := r.runner.Run(ctx, "install_name_tool", "-change", ref, candidate, file); err != nil {
			return lperr.Wrap(lperr.KindRelocation, "install_name_tool -change failed", err).WithContext(file)
		}
	}
	return nil
}

// fixInstallName rewrites a dylib's own -id when it still points at a
// build-time path (spec §4.7 step 3).
func (r *Relocator) fixInstallName(ctx context.Context, file, libPoolDir string) error {
	res, err := r.runner.Run(ctx, "otool", "-D", file)
	if err != nil || !res.Success() {
		return lperr.Wrap(lperr.KindRelocation, "otool -D failed", err).WithContext(file)
	}
	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	if len(lines) < 2 {
		return nil
	}
	current := strings.TrimSpace(lines[len(lines)-1])
	if !needsRewrite(current) {
		return nil
	}
	newID := filepath.Join(libPoolDir, filepath.Base(current))
	if _, err := r.runner.Run(ctx, "install_name_tool", "-id", newID, file); err != nil {
		return lperr.Wrap(lperr.KindRelocation, "install_name_tool -id failed", err).WithContext(file)
	}
	return nil
}

// addRpaths adds <packageRoot>/lib and <HOME>/.pantry/global to file's
// rpath list, tolerating "already exists" failures (spec §4.7 step 4).
func (r *Relocator) addRpaths(ctx context.Context, file, packageRoot, globalLibDir string) error {
	for _, rpath := range []string{filepath.Join(packageRoot, "lib"), globalLibDir} {
		res, err := r.runner.Run(ctx, "install_name_tool", "-add_rpath", rpath, file)
		if err != nil {
			return lperr.Wrap(lperr.KindRelocation, "install_name_tool -add_rpath failed", err).WithContext(file)
		}
		if !res.Success() && !strings.Contains(res.Stderr, "already exists") {
			return lperr.New(lperr.KindRelocation, "install_name_tool -add_rpath failed: "+res.Stderr).WithContext(file)
		}
	}
	return nil
}

// resign re-signs file with an ad-hoc signature after every rewrite
// (spec §4.7 step 5).
func (r *Relocator) resign(ctx context.Context, file string) error {
	res, err := r.runner.Run(ctx, "codesign", "--force", "--sign", "-", file)
	if err != nil || !res.Success() {
		return lperr.Wrap(lperr.KindRelocation, "codesign failed", err).WithContext(file)
	}
	return nil
}

// needsRewrite reports whether ref is an @rpath reference or an absolute
// path outside the system prefixes (spec §4.7 step 2).
func needsRewrite(ref string) bool {
	if strings.HasPrefix(ref, "@rpath/") {
		return true
	}
	if !strings.HasPrefix(ref, "/") {
		return false
	}
	for _, prefix := range systemPrefixes {
		if strings.HasPrefix(ref, prefix) {
			return false
		}
	}
	return true
}

// parseOtoolRef extracts the library path from one line of `otool -L`
// output, which has the shape "\t/path/to/lib.dylib (compatibility ...)".
func parseOtoolRef(line string) string {
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}
	idx := strings.Index(line, " (")
	if idx == -1 {
		return line
	}
	return line[:idx]
}

func pathExists(ctx context.Context, runner ports.CommandRunner, path string) bool {
	res, err := runner.Run(ctx, "test", "-e", path)
	return err == nil && res.Success()
}

// globFiles lists files directly under root/subdir matching the relocator's
// targets: every entry in bin/, every *.dylib in lib/. Errors reading the
// directory are swallowed — an absent bin/ or lib/ contributes nothing.
func globFiles(root, subdir string) []string {
	dir := filepath.Join(root, subdir)
	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil
	}
	if subdir != "lib" {
		return matches
	}
	var out []string
	for _, m := range matches {
		if strings.HasSuffix(m, ".dylib") {
			out = append(out, m)
		}
	}
	return out
}
