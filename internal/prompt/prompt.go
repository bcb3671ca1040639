// Package prompt resolves the fixed prompt templates of the two-stage
// ad pipeline. Templates live as embedded text files with
// {{PLACEHOLDER}} markers; resolution is plain substitution with no
// validation of the values.
package prompt

import (
	"embed"
	"strings"
)

//go:embed templates/*.txt
var templateFS embed.FS

const (
	placeholderCampaign   = "{{CAMPAIGN_DATA}}"
	placeholderGuidelines = "{{GUIDELINES}}"
	placeholderEdits      = "{{EDIT_INSTRUCTIONS}}"
)

var (
	plannerTemplate         = mustTemplate("templates/planner.txt")
	plannerPropSwapTemplate = mustTemplate("templates/planner_prop_swap.txt")
	unifiedTemplate         = mustTemplate("templates/unified.txt")
)

func mustTemplate(name string) string {
	data, err := templateFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Planner builds the strategy prompt that asks the text model for the
// three-key JSON plan (text_swap, product_swap, edits).
func Planner(campaignData string) string {
	return strings.ReplaceAll(plannerTemplate, placeholderCampaign, campaignData)
}

// PlannerPropSwap is the alternate planner prompt: the product swap is
// guided toward scene/prop reinterpretation instead of literal
// geometric alignment. Selected by caller policy, never by the
// pipeline itself.
func PlannerPropSwap(campaignData string) string {
	return strings.ReplaceAll(plannerPropSwapTemplate, placeholderCampaign, campaignData)
}

// Unified builds the single-pass generation prompt that performs
// text/logo replacement, product swap, and final grading together.
func Unified(campaignData, guidelines, editInstructions string) string {
	return strings.NewReplacer(
		placeholderCampaign, campaignData,
		placeholderGuidelines, guidelines,
		placeholderEdits, editInstructions,
	).Replace(unifiedTemplate)
}
