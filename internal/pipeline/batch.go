package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"adcraft/internal/assets"
	"adcraft/internal/gemini"
)

const defaultMaxConcurrent = 3

type BatchOptions struct {
	Generator AdGenerator
	Logger    *slog.Logger

	LogoPath      string
	ProductPath   string
	ReferencesDir string
	OutputDir     string

	// MaxConcurrent bounds the in-flight runs. Defaults to 3.
	MaxConcurrent int

	// Stdout receives progress lines and the statistics banner.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Batch loads the shared assets once, discovers the reference ads, and
// runs the generator for every reference under the admission gate.
// A failing run cancels the batch: join-all, fail-fast, no aggregate
// statistics on error. Outputs already written stay on disk.
type Batch struct {
	gen    AdGenerator
	logger *slog.Logger

	outMu sync.Mutex
	out   io.Writer

	logoPath      string
	productPath   string
	referencesDir string
	outputDir     string
	maxConcurrent int
}

func NewBatch(opts BatchOptions) *Batch {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = defaultMaxConcurrent
	}

	return &Batch{
		gen:           opts.Generator,
		logger:        logger,
		out:           out,
		logoPath:      opts.LogoPath,
		productPath:   opts.ProductPath,
		referencesDir: opts.ReferencesDir,
		outputDir:     opts.OutputDir,
		maxConcurrent: maxConcurrent,
	}
}

// printf serializes progress output; runs print concurrently.
func (b *Batch) printf(format string, args ...any) {
	b.outMu.Lock()
	defer b.outMu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}

// Run processes every discovered reference image and returns the
// aggregate usage statistics once all runs have completed.
func (b *Batch) Run(ctx context.Context, campaignData string) (Stats, error) {
	logo, err := assets.Load(b.logoPath)
	if err != nil {
		return Stats{}, err
	}
	product, err := assets.Load(b.productPath)
	if err != nil {
		return Stats{}, err
	}

	refs, err := assets.DiscoverReferences(b.referencesDir)
	if err != nil {
		return Stats{}, err
	}
	if len(refs) == 0 {
		fmt.Fprintln(b.out, "No reference images found.")
		return Stats{}, nil
	}

	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("create output dir: %w", err)
	}

	// Per-index result slots; the reduce happens only after every run
	// has joined.
	usages := make([]gemini.Usage, len(refs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(b.maxConcurrent)

	for i, refPath := range refs {
		i, refPath := i, refPath
		eg.Go(func() error {
			usage, err := b.processOne(egCtx, campaignData, refPath, logo, product)
			if err != nil {
				return err
			}
			usages[i] = usage
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return Stats{}, err
	}

	stats := Reduce(usages)
	stats.WriteSummary(b.out)
	fmt.Fprintln(b.out, "All ads generated successfully!")
	return stats, nil
}

func (b *Batch) processOne(ctx context.Context, campaignData, refPath string, logo, product gemini.ImageInput) (gemini.Usage, error) {
	b.printf("Processing: %s\n", filepath.Base(refPath))

	reference, err := assets.Load(refPath)
	if err != nil {
		return gemini.Usage{}, err
	}

	image, usage, err := b.gen.Run(ctx, campaignData, Inputs{
		Reference: reference,
		Logo:      logo,
		Product:   product,
	})
	if err != nil {
		return usage, fmt.Errorf("%s: %w", filepath.Base(refPath), err)
	}

	outPath := filepath.Join(b.outputDir, assets.OutputName(refPath))
	if err := os.WriteFile(outPath, image, 0o644); err != nil {
		return usage, fmt.Errorf("write output: %w", err)
	}

	b.printf("Saved: %s\n", outPath)
	b.logger.Info("ad generated", "reference", refPath, "output", outPath,
		"input_tokens", usage.InputTokens, "output_tokens", usage.OutputTokens)
	return usage, nil
}
