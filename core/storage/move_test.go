package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveFile_SameFilesystem(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	dst := filepath.Join(dir, "b.png")
	require.NoError(t, os.WriteFile(src, []byte("pixels"), 0o644))

	require.NoError(t, MoveFile(src, dst))

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
}

func TestMoveFile_MissingSource(t *testing.T) {
	dir := t.TempDir()

	err := MoveFile(filepath.Join(dir, "absent.png"), filepath.Join(dir, "out.png"))
	assert.Error(t, err)
}

func TestCopyFile_PreservesContentAndMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.png")
	require.NoError(t, os.WriteFile(src, []byte("screenshot bytes"), 0o600))

	require.NoError(t, copyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "screenshot bytes", string(data))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()

	err := copyFile(filepath.Join(dir, "absent.png"), filepath.Join(dir, "out.png"))
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "out.png"))
	assert.True(t, os.IsNotExist(statErr))
}
