package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"adcraft/internal/campaign"
	"adcraft/internal/config"
	"adcraft/internal/gemini"
	"adcraft/internal/httpclient"
	"adcraft/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)

	brief, err := campaign.Load(cfg.CampaignFile)
	if err != nil {
		logger.Error("campaign brief load failed", "path", cfg.CampaignFile, "err", err)
		os.Exit(1)
	}

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	gem := gemini.New(gemini.Options{
		APIKey:      cfg.GeminiAPIKey,
		BaseURL:     cfg.GeminiBaseURL,
		APIVersion:  cfg.GeminiAPIVersion,
		TextModel:   cfg.TextModel,
		ImageModel:  cfg.ImageModel,
		AspectRatio: cfg.AspectRatio,
		HTTPClient:  httpClient,
		Logger:      logger,
	})

	flow := pipeline.NewFlow(pipeline.FlowOptions{
		Gemini:   gem,
		Logger:   logger,
		PropSwap: cfg.PropSwapPlanner,
	})

	batch := pipeline.NewBatch(pipeline.BatchOptions{
		Generator:     flow,
		Logger:        logger,
		LogoPath:      cfg.LogoPath,
		ProductPath:   cfg.ProductPath,
		ReferencesDir: cfg.ReferencesDir,
		OutputDir:     cfg.OutputDir,
		MaxConcurrent: cfg.MaxConcurrent,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := batch.Run(ctx, brief.PromptText())
	if err != nil {
		logger.Error("batch failed", "err", err)
		os.Exit(1)
	}

	logger.Info("batch complete",
		"count", stats.Count,
		"total_input_tokens", stats.TotalInput,
		"total_output_tokens", stats.TotalOutput,
	)
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
