package archive

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestTarGz(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pkg.tar.gz")
	f, err := os.Create(archivePath)
	require.NoError(t, err)
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return archivePath
}

func TestValidate_CountsEntries(t *testing.T) {
	t.Parallel()

	path := writeTestTarGz(t, map[string]string{
		"bin/node":      "binary",
		"lib/libfoo.so": "lib",
	})

	count, err := Validate(path)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestValidate_EmptyArchiveIsCorrupt(t *testing.T) {
	t.Parallel()

	path := writeTestTarGz(t, map[string]string{})
	_, err := Validate(path)
	require.Error(t, err)
}

func TestExtract_WritesFiles(t *testing.T) {
	t.Parallel()

	path := writeTestTarGz(t, map[string]string{
		"bin/node": "binary-content",
	})
	destDir := t.TempDir()

	require.NoError(t, Extract(path, destDir))

	data, err := os.ReadFile(filepath.Join(destDir, "bin", "node"))
	require.NoError(t, err)
	assert.Equal(t, "binary-content", string(data))
}

func TestSafeJoin_RejectsTraversal(t *testing.T) {
	t.Parallel()

	_, err := safeJoin("/dest", "../../etc/passwd")
	require.Error(t, err)
}

func TestSafeJoin_AllowsNormalPath(t *testing.T) {
	t.Parallel()

	p, err := safeJoin("/dest", "bin/node")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/dest", "bin", "node"), p)
}

func TestFindPackageRoot_PrefersDomainVersionPath(t *testing.T) {
	t.Parallel()

	stage := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(stage, "nodejs.org", "v22.4.1", "bin"), 0o755))

	root, err := FindPackageRoot(stage, "nodejs.org", "22.4.1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(stage, "nodejs.org", "v22.4.1"), root)
}

func TestFindPackageRoot_FallsBackToFirstMatchingSubdir(t *testing.T) {
	t.Parallel()

	stage := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(stage, "weird-name", "bin"), 0o755))

	root, err := FindPackageRoot(stage, "nodejs.org", "22.4.1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(stage, "weird-name"), root)
}
