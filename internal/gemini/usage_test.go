package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsageAdd(t *testing.T) {
	a := Usage{InputTokens: 10, OutputTokens: 5}
	b := Usage{InputTokens: 3, OutputTokens: 7}

	assert.Equal(t, Usage{InputTokens: 13, OutputTokens: 12}, a.Add(b))
}

func TestUsageAddCommutativeAndAssociative(t *testing.T) {
	a := Usage{InputTokens: 10, OutputTokens: 5}
	b := Usage{InputTokens: 3, OutputTokens: 7}
	c := Usage{InputTokens: 1, OutputTokens: 2}

	assert.Equal(t, a.Add(b), b.Add(a))
	assert.Equal(t, a.Add(b).Add(c), a.Add(b.Add(c)))
}

func TestUsageAddZeroIdentity(t *testing.T) {
	a := Usage{InputTokens: 42, OutputTokens: 17}
	assert.Equal(t, a, a.Add(Usage{}))
}
