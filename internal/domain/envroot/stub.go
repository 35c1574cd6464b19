package envroot

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/launchpad-sh/launchpad/internal/domain/checkpoint"
	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
)

// globalStubDir is where global-scope programs get their fallback shim,
// per spec §4.8 step 5.
const globalStubDir = "/usr/local/bin"

// materializeStubs writes a POSIX shell stub for each program into
// globalStubDir: exec the real binary, else scan the global env, else
// trigger a reinstall, else fall back to the system command, else exit
// 127 with guidance (spec §4.8 step 5 / §8 scenario 6).
func (m *Materializer) materializeStubs(layout Layout, finalDir string, programs []string, cp *checkpoint.Checkpoint) error {
	for _, prog := range programs {
		stubPath := filepath.Join(globalStubDir, prog)
		script := renderStub(prog, filepath.Join(finalDir, "bin", prog), layout.Root)

		if m.fs.Exists(stubPath) {
			isSymlink, _ := m.fs.IsSymlink(stubPath)
			if !isSymlink && !isLaunchpadStub(m.fs, stubPath) {
				continue // never overwrite a user file that isn't our own stub
			}
		}

		if err := m.fs.WriteFile(stubPath, []byte(script), 0o755); err != nil {
			return lperr.Wrap(lperr.KindDisk, "write global stub", err).WithContext(stubPath)
		}
		cp.RecordFileCreated(stubPath)
	}
	return nil
}

func isLaunchpadStub(fs interface{ ReadFile(string) ([]byte, error) }, path string) bool {
	data, err := fs.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), stubMarker)
}

const stubMarker = "# launchpad-global-stub"

// renderStub builds the fallback chain described in spec §4.8 step 5:
// exec the real binary, then scan the global bin/sbin, then attempt a
// reinstall, then fall back to any system copy, then exit 127.
func renderStub(name, realPath, globalRoot string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#!/bin/sh\n%s\n", stubMarker)
	fmt.Fprintf(&b, "# generated for %q; do not edit by hand\n\n", name)
	fmt.Fprintf(&b, "export DYLD_LIBRARY_PATH=\"%[1]s/lib:$DYLD_LIBRARY_PATH\"\n", globalRoot)
	fmt.Fprintf(&b, "export DYLD_FALLBACK_LIBRARY_PATH=\"%[1]s/lib:$DYLD_FALLBACK_LIBRARY_PATH\"\n", globalRoot)
	fmt.Fprintf(&b, "export LD_LIBRARY_PATH=\"%[1]s/lib:$LD_LIBRARY_PATH\"\n\n", globalRoot)

	fmt.Fprintf(&b, "if [ -x %q ]; then\n  exec %q \"$@\"\nfi\n\n", realPath, realPath)

	fmt.Fprintf(&b, "for dir in %[1]s/bin %[1]s/sbin; do\n", globalRoot)
	fmt.Fprintf(&b, "  if [ -x \"$dir/%[1]s\" ]; then\n    exec \"$dir/%[1]s\" \"$@\"\n  fi\n", name)
	b.WriteString("done\n\n")

	b.WriteString("echo \"launchpad: global environment missing, attempting to reinstall...\" 1>&2\n")
	fmt.Fprintf(&b, "if command -v launchpad >/dev/null 2>&1; then\n")
	fmt.Fprintf(&b, "  launchpad install --global %q 1>&2\n", name)
	fmt.Fprintf(&b, "  if [ -x %q ]; then\n    exec %q \"$@\"\n  fi\nfi\n\n", realPath, realPath)

	fmt.Fprintf(&b, "system_path=$(command -v -p %q 2>/dev/null)\n", name)
	b.WriteString("if [ -n \"$system_path\" ] && [ \"$system_path\" != \"$0\" ]; then\n  exec \"$system_path\" \"$@\"\nfi\n\n")

	fmt.Fprintf(&b, "echo \"launchpad: no working copy of %s found; run 'launchpad install' to repair\" 1>&2\n", name)
	b.WriteString("exit 127\n")
	return b.String()
}
