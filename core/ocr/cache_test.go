package ocr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskCache_RoundTrip(t *testing.T) {
	cache, err := newDiskCache(filepath.Join(t.TempDir(), "ocr"))
	require.NoError(t, err)

	_, ok := cache.get("abc123")
	assert.False(t, ok)

	require.NoError(t, cache.put("abc123", "extracted text"))

	text, ok := cache.get("abc123")
	require.True(t, ok)
	assert.Equal(t, "extracted text", text)
}

func TestDiskCache_Clear(t *testing.T) {
	cache, err := newDiskCache(filepath.Join(t.TempDir(), "ocr"))
	require.NoError(t, err)

	require.NoError(t, cache.put("aaa", "one"))
	require.NoError(t, cache.put("bbb", "two"))
	require.NoError(t, cache.clear())

	_, ok := cache.get("aaa")
	assert.False(t, ok)
}

func TestHashFile_ContentKeyed(t *testing.T) {
	dir := t.TempDir()

	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	require.NoError(t, os.WriteFile(a, []byte("same bytes"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same bytes"), 0o644))

	ha, err := hashFile(a)
	require.NoError(t, err)
	hb, err := hashFile(b)
	require.NoError(t, err)

	// Identical content hashes identically regardless of filename.
	assert.Equal(t, ha, hb)
}
