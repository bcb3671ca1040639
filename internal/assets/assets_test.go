package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestLoadSniffsMimeType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(path, append(pngHeader, []byte("data")...), 0o644))

	asset, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", asset.MimeType)
	assert.Equal(t, append(pngHeader, []byte("data")...), asset.Data)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, loadErr.Path, "missing.png")
}

func TestLoadRejectsNonImageContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0o644))

	_, err := Load(path)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, path, loadErr.Path)
}

func TestDiscoverReferencesFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"a.png", "b.JPG", "c.jpeg", "d.webp", "e.gif", "f.bmp",
		"notes.txt", "plan.json", "archive.zip",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	paths, err := DiscoverReferences(dir)
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.ElementsMatch(t, []string{"a.png", "b.JPG", "c.jpeg", "d.webp", "e.gif", "f.bmp"}, names)
}

func TestDiscoverReferencesMissingDir(t *testing.T) {
	_, err := DiscoverReferences(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "summer_sale_new_1_gen.png", OutputName("references/summer_sale.jpg"))
	assert.Equal(t, "ad_new_1_gen.png", OutputName("/abs/path/ad.png"))
	assert.Equal(t, "double.dot_new_1_gen.png", OutputName("double.dot.webp"))
}
