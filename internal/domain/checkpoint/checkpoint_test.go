package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpad-sh/launchpad/internal/ports"
)

func TestCheckpoint_SaveThenLoad(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	c := New(fs, "/env")
	c.RecordFileCreated("/env/bin/node")
	c.RecordDirCreated("/env/nodejs.org")
	c.MarkInstalled("nodejs.org")
	require.NoError(t, c.Save())

	loaded, err := Load(fs, "/env")
	require.NoError(t, err)
	assert.True(t, loaded.IsInstalled("nodejs.org"))
	assert.Len(t, loaded.Actions(), 2)
}

func TestCheckpoint_LoadMissingReturnsEmpty(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	c, err := Load(fs, "/env")
	require.NoError(t, err)
	assert.Empty(t, c.Actions())
	assert.False(t, c.IsInstalled("nodejs.org"))
}

func TestCheckpoint_RollbackLIFO(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.AddFile("/env/bin/node", "binary")
	fs.AddFile("/env/nodejs.org/v22.4.1/bin/node", "staged")

	c := New(fs, "/env")
	c.RecordDirCreated("/env/nodejs.org")
	c.RecordFileCreated("/env/bin/node")

	report := c.Rollback()

	assert.Equal(t, 1, report.FilesRemoved)
	assert.Equal(t, 1, report.DirsRemoved)
	assert.Equal(t, 0, report.Failures)
	assert.False(t, fs.Exists("/env/bin/node"))
}

func TestCheckpoint_RollbackRestoresModifiedFile(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	fs.AddFile("/env/shared/lib.dylib", "new content")

	c := New(fs, "/env")
	require.NoError(t, c.RecordModification("/env/shared/lib.dylib", []byte("original content")))

	require.NoError(t, fs.WriteFile("/env/shared/lib.dylib", []byte("new content"), 0o644))

	report := c.Rollback()
	assert.Equal(t, 1, report.FilesRestored)

	data, err := fs.ReadFile("/env/shared/lib.dylib")
	require.NoError(t, err)
	assert.Equal(t, "original content", string(data))
}

func TestCheckpoint_RollbackTreatsMissingBackupAsFailure(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	c := New(fs, "/env")
	c.mu.Lock()
	c.actions = append(c.actions, Action{Kind: ActionFileModified, Path: "/env/lib/libfoo.dylib", BackupPath: "/env/.pantry-checkpoint-backups/missing"})
	c.mu.Unlock()

	report := c.Rollback()
	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, 0, report.FilesRestored)
}

func TestCheckpoint_CommitClearsActionsAndDeletesCheckpoint(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	c := New(fs, "/env")
	c.RecordFileCreated("/env/bin/node")
	require.NoError(t, c.Save())
	assert.True(t, fs.Exists("/env/.pantry-checkpoint.json"))

	require.NoError(t, c.Commit())
	assert.Empty(t, c.Actions())
	assert.False(t, fs.Exists("/env/.pantry-checkpoint.json"))
}
