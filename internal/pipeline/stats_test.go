package pipeline

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"adcraft/internal/gemini"
)

func TestReduceSumsFieldWise(t *testing.T) {
	stats := Reduce([]gemini.Usage{
		{InputTokens: 10, OutputTokens: 5},
		{InputTokens: 3, OutputTokens: 7},
	})

	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 13, stats.TotalInput)
	assert.Equal(t, 12, stats.TotalOutput)
}

func TestReduceOrderIndependent(t *testing.T) {
	a := []gemini.Usage{{InputTokens: 1, OutputTokens: 2}, {InputTokens: 30, OutputTokens: 40}, {InputTokens: 5, OutputTokens: 6}}
	b := []gemini.Usage{a[2], a[0], a[1]}

	assert.Equal(t, Reduce(a), Reduce(b))
}

func TestAveragesExact(t *testing.T) {
	stats := Reduce([]gemini.Usage{
		{InputTokens: 25, OutputTokens: 10},
		{InputTokens: 25, OutputTokens: 10},
		{InputTokens: 25, OutputTokens: 10},
		{InputTokens: 25, OutputTokens: 10},
	})

	assert.Equal(t, 100, stats.TotalInput)
	assert.Equal(t, 40, stats.TotalOutput)
	assert.InDelta(t, 25.0, stats.AvgInput(), 0)
	assert.InDelta(t, 10.0, stats.AvgOutput(), 0)
}

func TestAveragesZeroRuns(t *testing.T) {
	stats := Reduce(nil)
	assert.Zero(t, stats.AvgInput())
	assert.Zero(t, stats.AvgOutput())
}

func TestWriteSummaryFormat(t *testing.T) {
	stats := Stats{Count: 4, TotalInput: 100, TotalOutput: 40}

	var buf bytes.Buffer
	stats.WriteSummary(&buf)

	out := buf.String()
	assert.Contains(t, out, "TOKEN USAGE STATISTICS")
	assert.Contains(t, out, "Total images processed: 4")
	assert.Contains(t, out, "Average input tokens: 25.00")
	assert.Contains(t, out, "Average output tokens: 10.00")
	assert.Contains(t, out, "Total input tokens: 100")
	assert.Contains(t, out, "Total output tokens: 40")
}
