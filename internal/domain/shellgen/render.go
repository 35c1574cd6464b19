package shellgen

import (
	"fmt"
	"sort"
	"strings"
)

// sentinelVar guards against re-entrant activation (spec §4.10:
// "a per-hook sentinel variable prevents re-entry").
const sentinelVar = "_LAUNCHPAD_ACTIVE_HASH"

// Render turns a Plan into POSIX-compatible shell source, safe to `source`
// from bash or zsh.
func Render(p Plan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "if [ \"$%s\" = %q ]; then\n  return 0 2>/dev/null || exit 0\nfi\n", sentinelVar, p.ProjectHash)
	fmt.Fprintf(&b, "export %s=%q\n\n", sentinelVar, p.ProjectHash)

	for _, export := range p.Exports {
		if export.OriginalOf != "" {
			fmt.Fprintf(&b, "if [ -z \"${%s+x}\" ]; then\n  export %s=\"${%s:-%s}\"\nfi\n",
				export.Name, export.Name, export.OriginalOf, export.Value)
			continue
		}
		fmt.Fprintf(&b, "export %s=%q\n", export.Name, export.Value)
	}
	b.WriteString("\n")

	for _, addition := range p.PathAdditions {
		joined := strings.Join(nonEmpty(addition.Dirs), ":")
		fmt.Fprintf(&b, "export %s=%q\n", addition.Variable, joined)
	}
	b.WriteString("\n")

	renderDeactivation(&b, p)
	b.WriteString("\n")
	renderHook(&b, p)

	return b.String()
}

func renderDeactivation(b *strings.Builder, p Plan) {
	fmt.Fprintf(b, "_launchpad_dev_try_bye() {\n")
	fmt.Fprintf(b, "  case \"$PWD/\" in\n")
	fmt.Fprintf(b, "    %q/*) return 0 ;;\n", p.Deactivation.ProjectDir)
	b.WriteString("  esac\n")
	fmt.Fprintf(b, "  export PATH=\"$LAUNCHPAD_ORIGINAL_PATH\"\n")
	for _, libVar := range []string{"DYLD_LIBRARY_PATH", "DYLD_FALLBACK_LIBRARY_PATH", "LD_LIBRARY_PATH"} {
		fmt.Fprintf(b, "  unset %s\n", libVar)
	}
	b.WriteString("  unset LAUNCHPAD_ENV_BIN_PATH LAUNCHPAD_PROJECT_DIR LAUNCHPAD_PROJECT_HASH\n")
	fmt.Fprintf(b, "  unset %s\n", sentinelVar)
	fmt.Fprintf(b, "  echo %q 1>&2\n", p.Deactivation.Message)
	b.WriteString("}\n")
}

func renderHook(b *strings.Builder, p Plan) {
	if p.InstallerCommand == "" {
		return
	}
	renderPortableTimeoutHelper(b)
	fmt.Fprintf(b, "_launchpad_dev_try_hello() {\n")
	b.WriteString("  if [ -n \"$_LAUNCHPAD_HOOK_RUNNING\" ]; then return 0; fi\n")
	b.WriteString("  _LAUNCHPAD_HOOK_RUNNING=1\n")
	b.WriteString("  dir=\"$PWD\"\n")
	b.WriteString("  while [ \"$dir\" != \"/\" ]; do\n")
	for _, manifestFile := range []string{"dependencies.yaml", "dependencies.yml", "deps.yaml", "deps.yml", "pkgx.yaml", "pkgx.yml", "launchpad.yaml", "launchpad.yml"} {
		fmt.Fprintf(b, "    if [ -f \"$dir/%s\" ]; then\n", manifestFile)
		fmt.Fprintf(b, "      _launchpad_dev_timeout %d %s \"$dir\" 1>&2 || echo %q 1>&2\n", p.HookTimeoutSecs, p.InstallerCommand, "launchpad: activation timed out or failed, PATH left unchanged")
		b.WriteString("      break\n    fi\n")
	}
	b.WriteString("    dir=$(dirname \"$dir\")\n")
	b.WriteString("  done\n")
	b.WriteString("  unset _LAUNCHPAD_HOOK_RUNNING\n")
	b.WriteString("}\n")
	b.WriteString("_launchpad_dev_try_bye\n")
	b.WriteString("_launchpad_dev_try_hello\n")
}

// renderPortableTimeoutHelper emits a _launchpad_dev_timeout wrapper that
// picks GNU timeout, falls back to macOS Homebrew's gtimeout, and finally
// degrades to running the command unbounded, per spec §5's "all subprocesses
// wrapped in a portable timeout (timeout/gtimeout/no-op fallback)".
func renderPortableTimeoutHelper(b *strings.Builder) {
	b.WriteString("_launchpad_dev_timeout() {\n")
	b.WriteString("  if command -v timeout >/dev/null 2>&1; then\n")
	b.WriteString("    timeout \"$@\"\n")
	b.WriteString("  elif command -v gtimeout >/dev/null 2>&1; then\n")
	b.WriteString("    gtimeout \"$@\"\n")
	b.WriteString("  else\n")
	b.WriteString("    shift\n")
	b.WriteString("    \"$@\"\n")
	b.WriteString("  fi\n")
	b.WriteString("}\n")
}

func nonEmpty(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

// sortedEnvKeys returns env's keys in sorted order; Build uses it so the
// sniffed env exports come out in a deterministic order (e.g. for
// golden-file tests).
func sortedEnvKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
