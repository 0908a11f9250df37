package emoticon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("img"), 0644))
	}
}

func TestNewCatalog(t *testing.T) {
	c := NewCatalog("imgs", []string{"smile.png", "cry.GIF", "notes.txt", ".png", "wave.webp", "README"})

	assert.Equal(t, []string{"smile", "cry", "wave"}, c.Names())
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, "imgs", c.Dir())

	e, ok := c.Lookup("cry")
	require.True(t, ok)
	assert.Equal(t, Entry{Name: "cry", File: "cry.GIF", Path: filepath.Join("imgs", "cry.GIF")}, e)

	_, ok = c.Lookup("notes")
	assert.False(t, ok)
}

func TestNewCatalog_NameCollision(t *testing.T) {
	c := NewCatalog("imgs", []string{"smile.png", "cry.jpg", "smile.gif"})

	assert.Equal(t, []string{"smile", "cry"}, c.Names(), "collision keeps first-seen position")
	e, ok := c.Lookup("smile")
	require.True(t, ok)
	assert.Equal(t, "smile.gif", e.File, "later file wins")
}

func TestCatalog_NamesIsCopy(t *testing.T) {
	c := NewCatalog("imgs", []string{"a.png"})
	names := c.Names()
	names[0] = "changed"
	assert.Equal(t, []string{"a"}, c.Names())
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	writeImages(t, dir, "smile.png", "cry.jpeg", "doc.pdf")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0755))

	c, err := LoadCatalog(dir)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"smile", "cry"}, c.Names())
	e, ok := c.Lookup("smile")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "smile.png"), e.Path)
}

func TestLoadCatalog_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")

	c, err := LoadCatalog(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadCatalog_UncreatableDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	writeImages(t, base, "file")

	_, err := LoadCatalog(filepath.Join(blocker, "images"))
	assert.Error(t, err)
}
