// Package archive validates and extracts tar.xz/tar.gz package archives
// into a staging directory, per spec.md §4.6.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
)

// packageRootCandidates are the subdirectory names whose presence marks a
// directory as a package root, per spec §4.6.
var packageRootCandidates = []string{"bin", "sbin", "lib", "include", "share"}

// Validate indexes every entry in the archive without extracting it,
// rejecting archives that cannot be fully read or that contain zero
// entries (spec §4.6 step 1: CorruptArchive).
func Validate(path string) (entryCount int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, lperr.Wrap(lperr.KindIntegrity, "open archive", err)
	}
	defer f.Close()

	tr, closer, err := tarReaderFor(path, f)
	if err != nil {
		return 0, err
	}
	if closer != nil {
		defer closer.Close()
	}

	count := 0
	for {
		_, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, lperr.ErrCorruptArchive.WithContext(path)
		}
		count++
	}
	if count == 0 {
		return 0, lperr.ErrCorruptArchive.WithContext(path)
	}
	return count, nil
}

// Extract validates then extracts path into destDir, refusing to honor
// owner/permission bits from the archive (spec §4.6: "uniform installer
// identity") beyond the execute bit needed for binaries to run.
func Extract(path, destDir string) error {
	if _, err := Validate(path); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return lperr.Wrap(lperr.KindIntegrity, "open archive", err)
	}
	defer f.Close()

	tr, closer, err := tarReaderFor(path, f)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return lperr.Wrap(lperr.KindIntegrity, "extract archive", err)
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return lperr.Wrap(lperr.KindDisk, "unsafe archive entry", err).WithContext(hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return lperr.Wrap(lperr.KindDisk, "create directory", err).WithContext(target)
			}
		case tar.TypeReg:
			if err := extractFile(tr, target, hdr); err != nil {
				return err
			}
		case tar.TypeSymlink:
			_ = os.MkdirAll(filepath.Dir(target), 0o755)
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return lperr.Wrap(lperr.KindDisk, "create symlink", err).WithContext(target)
			}
		}
	}
	return nil
}

func extractFile(tr *tar.Reader, target string, hdr *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return lperr.Wrap(lperr.KindDisk, "create parent directory", err).WithContext(target)
	}

	perm := os.FileMode(0o644)
	if hdr.Mode&0o111 != 0 {
		// preserve only the execute bit; owner/group/special bits are
		// never honored from the archive (uniform installer identity).
		perm = 0o755
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return lperr.Wrap(lperr.KindDisk, "create file", err).WithContext(target)
	}
	defer out.Close()

	if _, err := io.Copy(out, tr); err != nil {
		return lperr.Wrap(lperr.KindDisk, "write file", err).WithContext(target)
	}
	return nil
}

// safeJoin joins destDir and name, rejecting any entry that would escape
// destDir via ".." traversal (a zip-slip style attack surface in archives
// from an untrusted registry).
func safeJoin(destDir, name string) (string, error) {
	cleaned := filepath.Join(destDir, name)
	if !strings.HasPrefix(cleaned, filepath.Clean(destDir)+string(os.PathSeparator)) && cleaned != filepath.Clean(destDir) {
		return "", lperr.New(lperr.KindIntegrity, "archive entry escapes destination: "+name)
	}
	return cleaned, nil
}

// tarReaderFor opens the correct decompression layer for path's suffix.
// The returned io.Closer (nil for tar.xz; the gzip.Reader for tar.gz/.tgz,
// which must be closed) lets the caller release any wrapper resources.
func tarReaderFor(path string, f *os.File) (*tar.Reader, io.Closer, error) {
	switch {
	case strings.HasSuffix(path, ".tar.xz"):
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, nil, lperr.ErrCorruptArchive.WithContext(path)
		}
		return tar.NewReader(xr), nil, nil
	case strings.HasSuffix(path, ".tar.gz"), strings.HasSuffix(path, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, lperr.ErrCorruptArchive.WithContext(path)
		}
		return tar.NewReader(gr), gr, nil
	default:
		return nil, nil, lperr.New(lperr.KindIntegrity, "unrecognized archive format: "+path)
	}
}

// FindPackageRoot locates the package root within a staging directory:
// preferring "<stage>/<domain>/v<version>/", then "<stage>/", then the
// first subdirectory containing any of packageRootCandidates (spec §4.6).
func FindPackageRoot(stageDir, domain, version string) (string, error) {
	preferred := filepath.Join(stageDir, domain, "v"+version)
	if hasPackageMarker(preferred) {
		return preferred, nil
	}
	if hasPackageMarker(stageDir) {
		return stageDir, nil
	}

	entries, err := os.ReadDir(stageDir)
	if err != nil {
		return "", lperr.Wrap(lperr.KindDisk, "read staging directory", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		candidate := filepath.Join(stageDir, e.Name())
		if hasPackageMarker(candidate) {
			return candidate, nil
		}
	}
	return "", lperr.New(lperr.KindIntegrity, "no package root found in staged archive").WithContext(stageDir)
}

func hasPackageMarker(dir string) bool {
	for _, name := range packageRootCandidates {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}
