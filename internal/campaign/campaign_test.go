package campaign

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBrief(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "campaign.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBrief(t *testing.T) {
	path := writeBrief(t, `
brand: Seven-Ten
campaign: Karigar
info: |
  Homegrown sneaker brand honoring India's artisans.
directions: |
  Keep the colorway Bombay Black.
`)

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Seven-Ten", b.Brand)
	assert.Equal(t, "Karigar", b.Campaign)

	text := b.PromptText()
	assert.Contains(t, text, "Brand: Seven-Ten")
	assert.Contains(t, text, "Campaign: Karigar")
	assert.Contains(t, text, "honoring India's artisans")
	assert.Contains(t, text, "Directions:")
	assert.Contains(t, text, "Bombay Black")
}

func TestLoadBriefInfoRequired(t *testing.T) {
	path := writeBrief(t, "brand: X\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadBriefMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestPromptTextMinimal(t *testing.T) {
	b := Brief{Info: "just the facts"}
	assert.Equal(t, "just the facts", b.PromptText())
}
