package shellgen

import (
	"fmt"
	"strings"
)

// RenderZsh turns a Plan into zsh source. It shares every piece of Render
// except how the cd hook is registered: zsh gets its activation/
// deactivation functions wired into its native chpwd hook array via
// `autoload -Uz add-zsh-hook` instead of bash's PROMPT_COMMAND-style
// polling, per §9's "two renderers consume the same plan" design note.
func RenderZsh(p Plan) string {
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
	renderZshHook(&b, p)

	return b.String()
}

// renderZshHook registers _launchpad_dev_try_bye/_hello on zsh's chpwd
// hook array, so they fire on every directory change without the caller
// having to poll $PWD from PROMPT_COMMAND.
func renderZshHook(b *strings.Builder, p Plan) {
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
	b.WriteString("_launchpad_dev_chpwd_hook() {\n")
	b.WriteString("  _launchpad_dev_try_bye\n")
	b.WriteString("  _launchpad_dev_try_hello\n")
	b.WriteString("}\n")
	b.WriteString("autoload -Uz add-zsh-hook\n")
	b.WriteString("add-zsh-hook chpwd _launchpad_dev_chpwd_hook\n")
	b.WriteString("_launchpad_dev_chpwd_hook\n")
}
