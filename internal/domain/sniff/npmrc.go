package sniff

import (
	"gopkg.in/ini.v1"

	"github.com/launchpad-sh/launchpad/internal/domain/manifest"
)

// npmrcKeyToEnv maps the handful of .npmrc keys that carry through to the
// sniff result's env block as registry/proxy hints. Unlisted keys are
// ignored: .npmrc is a hint source, not a dependency source.
var npmrcKeyToEnv = map[string]string{
	"registry":    "npm_config_registry",
	"proxy":       "HTTP_PROXY",
	"https-proxy": "HTTPS_PROXY",
	"noproxy":     "NO_PROXY",
	"cache":       "npm_config_cache",
	"strict-ssl":  "npm_config_strict_ssl",
}

// parseNpmrc reads a .npmrc file (INI syntax without section headers,
// which ini.v1 accepts as the DEFAULT section) and merges recognized keys
// into result's env block. Parse failures are swallowed per spec §4.1:
// a malformed manifest contributes nothing rather than failing the sniff.
func parseNpmrc(data []byte, result *manifest.SniffResult) {
	cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, data)
	if err != nil {
		return
	}

	section := cfg.Section("")
	for key, envVar := range npmrcKeyToEnv {
		if !section.HasKey(key) {
			continue
		}
		value := section.Key(key).String()
		if value == "" {
			continue
		}
		result.MergeEnv(envVar, value)
	}
}
