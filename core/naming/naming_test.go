package naming

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lophius/screenkeep/core/store"
)

var testDate = time.Date(2026, 8, 15, 14, 30, 0, 0, time.UTC)

func TestGenerate_FullForm(t *testing.T) {
	namer := NewNamer(0)

	name := namer.Generate(store.CategoryError,
		[]string{"database", "timeout", "connection"},
		"a1b2c3d4e5", testDate, ".png")

	assert.Equal(t, "2026-08-15_Error-Database_Database_Timeout_Connection_a1b2.png", name)
}

func TestGenerate_NoKeywords(t *testing.T) {
	namer := NewNamer(0)

	name := namer.Generate(store.CategoryOther, nil, "deadbeef", testDate, "png")

	assert.Equal(t, "2026-08-15_Other_dead.png", name)
}

func TestGenerate_SanitizesInvalidCharacters(t *testing.T) {
	namer := NewNamer(0)

	name := namer.Generate(store.CategoryUI,
		[]string{"login/page", "user:form"},
		"cafebabe", testDate, ".png")

	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, ":")
	assert.Contains(t, name, "Loginpage")
}

func TestGenerate_TruncatesLongNames(t *testing.T) {
	namer := NewNamer(60)

	name := namer.Generate(store.CategoryDocumentation,
		[]string{strings.Repeat("verylongkeyword", 5)},
		"12345678", testDate, ".png")

	assert.LessOrEqual(t, len(name), 60)
	assert.True(t, strings.HasSuffix(name, ".png"))
}

func TestSubcategory(t *testing.T) {
	tests := []struct {
		category store.Category
		keywords []string
		want     string
	}{
		{store.CategoryError, []string{"database", "timeout"}, "Database"},
		{store.CategoryError, []string{"timeout"}, "Network"},
		{store.CategoryError, []string{"500", "server"}, "HTTP"},
		{store.CategoryCode, []string{"python", "script"}, "Python"},
		{store.CategoryCode, []string{"yaml"}, "Config"},
		{store.CategoryUI, []string{"login"}, "Auth"},
		{store.CategoryData, []string{"chart"}, "Charts"},
		{store.CategoryData, []string{"spreadsheet"}, ""},
		{store.CategoryOther, []string{"anything"}, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Subcategory(tt.category, tt.keywords),
			"category %s keywords %v", tt.category, tt.keywords)
	}
}

func TestFileHash_Stable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(path, []byte("pixels"), 0o644))

	h1, err := FileHash(path)
	require.NoError(t, err)
	h2, err := FileHash(path)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestResolveDuplicate(t *testing.T) {
	dir := t.TempDir()

	name, err := ResolveDuplicate(dir, "shot.png")
	require.NoError(t, err)
	assert.Equal(t, "shot.png", name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "shot.png"), nil, 0o644))
	name, err = ResolveDuplicate(dir, "shot.png")
	require.NoError(t, err)
	assert.Equal(t, "shot(1).png", name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "shot(1).png"), nil, 0o644))
	name, err = ResolveDuplicate(dir, "shot.png")
	require.NoError(t, err)
	assert.Equal(t, "shot(2).png", name)
}

func TestSanitize_WindowsReservedNames(t *testing.T) {
	assert.Equal(t, "File_CON.png", sanitize("CON.png"))
	assert.Equal(t, "normal.png", sanitize("normal.png"))
}
