package envroot

import (
	"path/filepath"

	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

// Layout resolves the well-known subdirectories of an environment root,
// per spec §3's "Environment root" invariant.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout { return Layout{Root: root} }

func (l Layout) BinDir() string   { return filepath.Join(l.Root, "bin") }
func (l Layout) SbinDir() string  { return filepath.Join(l.Root, "sbin") }
func (l Layout) LibDir() string   { return filepath.Join(l.Root, "lib") }
func (l Layout) Lib64Dir() string { return filepath.Join(l.Root, "lib64") }
func (l Layout) TmpDir() string   { return filepath.Join(l.Root, ".tmp") }

// PackageDir is "<root>/<domain>/v<version>".
func (l Layout) PackageDir(domain, version string) string {
	return filepath.Join(l.Root, domain, "v"+version)
}

// MajorLink is "<root>/<domain>/v<major>".
func (l Layout) MajorLink(domain string, major int) string {
	return filepath.Join(l.Root, domain, majorSymlinkName(major))
}

func majorSymlinkName(major int) string {
	return "v" + itoa(major)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Ensure creates the fixed top-level directories of an environment root.
// Idempotent: MkdirAll is a no-op when the directory already exists.
func (l Layout) Ensure(fs ports.FileSystem) error {
	for _, dir := range []string{l.Root, l.BinDir(), l.SbinDir(), l.LibDir(), l.Lib64Dir(), l.TmpDir()} {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return lperr.Wrap(lperr.KindDisk, "create environment directory", err).WithContext(dir)
		}
	}
	return nil
}
