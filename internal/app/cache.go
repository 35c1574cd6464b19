package app

import (
	"os"
	"path/filepath"

	"github.com/launchpad-sh/launchpad/internal/domain/envroot"
)

// ClearDownloadCache removes every file under cacheDir (the archive
// download cache shared across projects) and reports the bytes freed.
// A missing cache directory is not an error — there is simply nothing to
// free yet.
func ClearDownloadCache(cacheDir string) (int64, error) {
	return removeAndSize(cacheDir)
}

// ClearEverything removes the entire "<data-home>/launchpad" tree: every
// project environment, the global environment, and the download cache
// (spec's supplemented `cache:clear --all`, grounded on hermit's CleanMask
// "all" behavior). It reports the bytes freed.
func ClearEverything() (int64, error) {
	root := filepath.Join(envroot.DataHome(), "launchpad")
	return removeAndSize(root)
}

// removeAndSize sums the size of every regular file under dir, then
// removes dir entirely. Real os calls, not ports.FileSystem: this walks
// and deletes outside of any single project's tree, a concern the
// per-project FileSystem abstraction was never meant to cover.
func removeAndSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}

	if err := os.RemoveAll(dir); err != nil {
		return 0, err
	}
	return total, nil
}
