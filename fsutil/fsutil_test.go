package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirCreatesParent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "nested", "sub", "store.cvec")

	require.NoError(t, EnsureDir(target))
	info, err := os.Stat(filepath.Join(root, "nested", "sub"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestExistsAndSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.bin")
	assert.False(t, Exists(path))
	assert.Equal(t, int64(0), Size(path))

	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))
	assert.True(t, Exists(path))
	assert.Equal(t, int64(11), Size(path))
}

func TestCopyForBackupUncompressed(t *testing.T) {
	src := filepath.Join(t.TempDir(), "store.cvec")
	require.NoError(t, os.WriteFile(src, []byte("vector log contents"), 0o644))

	destDir := t.TempDir()
	backupPath, err := CopyForBackup(src, destDir, false)
	require.NoError(t, err)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "vector log contents", string(data))
}

func TestCopyForBackupCompressed(t *testing.T) {
	src := filepath.Join(t.TempDir(), "store.cvec")
	require.NoError(t, os.WriteFile(src, []byte("vector log contents"), 0o644))

	destDir := t.TempDir()
	backupPath, err := CopyForBackup(src, destDir, true)
	require.NoError(t, err)
	assert.Contains(t, backupPath, ".zst")
}

func TestCopyForBackupCollisionFree(t *testing.T) {
	src := filepath.Join(t.TempDir(), "store.cvec")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))
	destDir := t.TempDir()

	p1, err := CopyForBackup(src, destDir, false)
	require.NoError(t, err)
	p2, err := CopyForBackup(src, destDir, false)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
}

func TestLockUnlockExcludesSecondOpener(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.lock")

	f, err := Lock(path)
	require.NoError(t, err)

	_, err = Lock(path)
	assert.Error(t, err, "a second lock attempt on the same path must fail")

	require.NoError(t, Unlock(f))
}
