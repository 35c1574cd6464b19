// Package settings loads user-level configuration for the CLI: download
// concurrency, retry policy, proxy overrides, and global auto-update
// behavior (spec §6's environment variables, layered under a config file).
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Settings controls the download engine and global-update behavior. The
// default set comes from Defaults; the zero value is not that set.
type Settings struct {
	MaxConcurrent        int    `toml:"max_concurrent"`
	MaxRetries           int    `toml:"max_retries"`
	InitialRetryDelayMs  int    `toml:"initial_retry_delay_ms"`
	HTTPProxy            string `toml:"http_proxy"`
	HTTPSProxy           string `toml:"https_proxy"`
	NoProxy              string `toml:"no_proxy"`
	AutoUpdateGlobals    bool   `toml:"auto_update_globals"`
	GlobalUpdateTTLHours int    `toml:"global_update_ttl_hours"`
}

// Defaults returns the built-in default layer, applied before the config
// file and environment layers.
func Defaults() Settings {
	return Settings{
		MaxConcurrent:        4,
		MaxRetries:           3,
		InitialRetryDelayMs:  250,
		AutoUpdateGlobals:    true,
		GlobalUpdateTTLHours: 24,
	}
}

// ConfigPath returns "${XDG_CONFIG_HOME:-~/.config}/launchpad/config.toml".
func ConfigPath() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "launchpad", "config.toml")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "launchpad", "config.toml")
}

// Load builds Settings by layering defaults, the config file at path (a
// missing file is not an error), and environment variables, in that order
// — each layer overriding the last (spec §6).
func Load(path string) (Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Settings{}, fmt.Errorf("settings: read %s: %w", path, err)
		}
	} else if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("settings: parse %s: %w", path, err)
	}

	applyEnv(&s)
	return s, nil
}

// applyEnv layers environment variables over whatever defaults/file already
// set, per spec §6's "Environment variables read" list.
func applyEnv(s *Settings) {
	if v := os.Getenv("HTTP_PROXY"); v != "" {
		s.HTTPProxy = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		s.HTTPSProxy = v
	}
	if v := os.Getenv("NO_PROXY"); v != "" {
		s.NoProxy = v
	}
	if v := os.Getenv("LAUNCHPAD_AUTO_UPDATE_GLOBALS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.AutoUpdateGlobals = b
		}
	}
	if v := os.Getenv("LAUNCHPAD_GLOBAL_UPDATE_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.GlobalUpdateTTLHours = n
		}
	}
}
