package envroot

import (
	"crypto/md5" //nolint:gosec // content-addressing, not a security boundary
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// Identity computes a project's identity string (it does not compute the
// environment root path), per spec §6/§8 scenario 4:
// "<basename>_<md5(abs_project_path)[0..8]>" optionally suffixed
// "-d<md5(dep_file)[0..8]>" when depFileContent is non-empty.
func Identity(projectPath string, depFileContent []byte) string {
	abs := projectPath
	if resolved, err := filepath.Abs(projectPath); err == nil {
		abs = resolved
	}
	base := filepath.Base(abs)
	id := fmt.Sprintf("%s_%s", base, shortMD5(abs))
	if len(depFileContent) > 0 {
		id += "-d" + shortMD5(string(depFileContent))
	}
	return id
}

// shortMD5 returns the first 8 hex characters of md5(s).
func shortMD5(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(sum[:])[:8]
}

// DataHome resolves "${XDG_DATA_HOME:-$HOME/.local/share}" (spec §6).
func DataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share")
}

// EnvPath returns the environment root for a project identity:
// "<data-home>/launchpad/<identity>".
func EnvPath(identity string) string {
	return filepath.Join(DataHome(), "launchpad", identity)
}

// GlobalEnvPath returns the shared global environment root:
// "<data-home>/launchpad/global".
func GlobalEnvPath() string {
	return filepath.Join(DataHome(), "launchpad", "global")
}
