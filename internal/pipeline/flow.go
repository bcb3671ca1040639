// Package pipeline sequences the two model calls that turn a
// reference ad into a finished campaign ad, and runs that sequence
// across a directory of references under a concurrency cap.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"adcraft/internal/gemini"
	"adcraft/internal/plan"
	"adcraft/internal/prompt"
)

// Inputs is the fixed attachment tuple of a run. The order sent to the
// model is always reference, logo, product.
type Inputs struct {
	Reference gemini.ImageInput
	Logo      gemini.ImageInput
	Product   gemini.ImageInput
}

func (in Inputs) attachments() []gemini.ImageInput {
	return []gemini.ImageInput{in.Reference, in.Logo, in.Product}
}

// AdGenerator is one complete two-stage run for a single reference.
type AdGenerator interface {
	Run(ctx context.Context, campaignData string, in Inputs) ([]byte, gemini.Usage, error)
}

type FlowOptions struct {
	Gemini *gemini.Client
	Logger *slog.Logger

	// PropSwap selects the alternate planner prompt that reinterprets
	// props and scene instead of aligning the product geometrically.
	PropSwap bool
}

// Flow is the two-stage orchestrator: planner call, parse, image
// generation. Either stage failing aborts the run with no partial
// output.
type Flow struct {
	gem      *gemini.Client
	logger   *slog.Logger
	propSwap bool
}

func NewFlow(opts FlowOptions) *Flow {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Flow{
		gem:      opts.Gemini,
		logger:   logger,
		propSwap: opts.PropSwap,
	}
}

// Plan runs the planner stage: build the strategy prompt, call the
// text model with the three attachments, extract and parse the JSON
// plan.
func (f *Flow) Plan(ctx context.Context, campaignData string, in Inputs) (plan.Plan, gemini.Usage, error) {
	plannerPrompt := prompt.Planner(campaignData)
	if f.propSwap {
		plannerPrompt = prompt.PlannerPropSwap(campaignData)
	}

	raw, usage, err := f.gem.GenerateText(ctx, plannerPrompt, in.attachments())
	if err != nil {
		return plan.Plan{}, usage, fmt.Errorf("plan stage: %w", err)
	}

	p, err := plan.Parse(raw)
	if err != nil {
		return plan.Plan{}, usage, fmt.Errorf("plan stage: %w", err)
	}

	f.logger.Debug("plan ready",
		"text_swap_len", len(p.TextSwap),
		"product_swap_len", len(p.ProductSwap),
		"edits_len", len(p.Edits),
	)
	return p, usage, nil
}

// Render runs the generation stage: fill the unified prompt's
// campaign-data slot with campaignData and the remaining slots from
// the plan, then call the image model with the same attachments.
func (f *Flow) Render(ctx context.Context, campaignData string, p plan.Plan, in Inputs) ([]byte, gemini.Usage, error) {
	unified := prompt.Unified(campaignData, p.ProductSwap, p.Edits)

	image, usage, err := f.gem.GenerateImage(ctx, unified, in.attachments())
	if err != nil {
		return nil, usage, fmt.Errorf("render stage: %w", err)
	}
	return image, usage, nil
}

// Run executes both stages for one reference and sums their usage.
func (f *Flow) Run(ctx context.Context, campaignData string, in Inputs) ([]byte, gemini.Usage, error) {
	p, planUsage, err := f.Plan(ctx, campaignData, in)
	if err != nil {
		return nil, planUsage, err
	}

	image, renderUsage, err := f.Render(ctx, p.TextSwap, p, in)
	total := planUsage.Add(renderUsage)
	if err != nil {
		return nil, total, err
	}
	return image, total, nil
}
