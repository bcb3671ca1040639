package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlannerResolvesCampaignData(t *testing.T) {
	got := Planner("ACME winter drop")

	assert.Contains(t, got, "ACME winter drop")
	assert.NotContains(t, got, "{{CAMPAIGN_DATA}}")
	for _, key := range []string{"text_swap", "product_swap", "edits"} {
		assert.Contains(t, got, key)
	}
}

func TestPlannerVariantsDiffer(t *testing.T) {
	literal := Planner("data")
	propSwap := PlannerPropSwap("data")

	assert.NotEqual(t, literal, propSwap)
	// The prop-swap variant reinterprets the scene instead of matching
	// geometry.
	assert.Contains(t, propSwap, "base skeleton")
	assert.Contains(t, literal, "Yaw/Pitch/Roll")
}

func TestUnifiedResolvesAllSlots(t *testing.T) {
	got := Unified("campaign copy", "swap guidelines", "grading notes")

	assert.Contains(t, got, "campaign copy")
	assert.Contains(t, got, "swap guidelines")
	assert.Contains(t, got, "grading notes")
	for _, leftover := range []string{"{{CAMPAIGN_DATA}}", "{{GUIDELINES}}", "{{EDIT_INSTRUCTIONS}}"} {
		assert.NotContains(t, got, leftover)
	}
}

func TestTemplatesCarryNoUnknownPlaceholders(t *testing.T) {
	for name, resolved := range map[string]string{
		"planner":           Planner("x"),
		"planner_prop_swap": PlannerPropSwap("x"),
		"unified":           Unified("x", "y", "z"),
	} {
		assert.False(t, strings.Contains(resolved, "{{"), "unresolved placeholder in %s", name)
	}
}
