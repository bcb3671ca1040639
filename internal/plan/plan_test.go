package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFencedReturnsBlockContent(t *testing.T) {
	text := "Here is the plan:\n```json\n{\"a\": 1}\n```\nthanks"
	assert.Equal(t, `{"a": 1}`, ExtractFenced(text, "json"))
}

func TestExtractFencedFirstBlockWins(t *testing.T) {
	text := "```json\nfirst\n```\n```json\nsecond\n```"
	assert.Equal(t, "first", ExtractFenced(text, "json"))
}

func TestExtractFencedIdentityFallback(t *testing.T) {
	text := `{"text_swap":"a","product_swap":"b","edits":"c"}`
	assert.Equal(t, text, ExtractFenced(text, "json"))

	prose := "no fences here at all"
	assert.Equal(t, prose, ExtractFenced(prose, "json"))
}

func TestExtractFencedIgnoresOtherLanguages(t *testing.T) {
	text := "```python\nprint(1)\n```"
	assert.Equal(t, text, ExtractFenced(text, "json"))
}

func TestParseFencedAndBare(t *testing.T) {
	want := Plan{TextSwap: "X", ProductSwap: "Y", Edits: "Z"}

	fenced := "```json\n{\"text_swap\":\"X\",\"product_swap\":\"Y\",\"edits\":\"Z\"}\n```"
	p, err := Parse(fenced)
	require.NoError(t, err)
	assert.Equal(t, want, p)

	bare := `{"text_swap":"X","product_swap":"Y","edits":"Z"}`
	p, err = Parse(bare)
	require.NoError(t, err)
	assert.Equal(t, want, p)
}

func TestParseRejectsNonJSON(t *testing.T) {
	_, err := Parse("I could not produce a plan, sorry.")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestParseRejectsMissingKeys(t *testing.T) {
	for _, raw := range []string{
		`{"product_swap":"Y","edits":"Z"}`,
		`{"text_swap":"X","edits":"Z"}`,
		`{"text_swap":"X","product_swap":"Y"}`,
		`{}`,
	} {
		_, err := Parse(raw)
		require.Error(t, err, "input %s", raw)
		assert.True(t, errors.Is(err, ErrMalformed))
	}
}

func TestParsePreservesValuesExactly(t *testing.T) {
	raw := "```json\n{\"text_swap\":\"Replace \\\"SALE\\\" with the new headline\",\"product_swap\":\"match yaw/pitch/roll\",\"edits\":\"grade to Bombay Black\"}\n```"
	p, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, `Replace "SALE" with the new headline`, p.TextSwap)
	assert.Equal(t, "match yaw/pitch/roll", p.ProductSwap)
	assert.Equal(t, "grade to Bombay Black", p.Edits)
}
