package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	GeminiAPIKey  string
	TelegramToken string

	LogLevel string
	Debug    bool

	PreferIPv4 bool

	GeminiBaseURL    string
	GeminiAPIVersion string
	TextModel        string
	ImageModel       string
	AspectRatio      string

	LogoPath      string
	ProductPath   string
	ReferencesDir string
	OutputDir     string
	CampaignFile  string

	// PropSwapPlanner selects the alternate planner prompt that
	// reinterprets scene and props instead of aligning geometrically.
	PropSwapPlanner bool

	MaxConcurrent      int
	RequestTimeout     time.Duration
	HTTPTimeout        time.Duration
	MediaGroupDebounce time.Duration
}

// Load reads configuration from the environment. GEMINI_API_KEY is
// required for every binary; TELEGRAM_BOT_TOKEN only for the bot, so
// its presence is checked by the caller via RequireTelegram.
func Load() (Config, error) {
	cfg := Config{
		LogLevel:           strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:              getEnvBool("DEBUG", false),
		PreferIPv4:         getEnvBool("PREFER_IPV4", true),
		GeminiBaseURL:      strings.TrimSpace(getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")),
		GeminiAPIVersion:   strings.TrimSpace(getEnv("GEMINI_API_VERSION", "v1beta")),
		TextModel:          strings.TrimSpace(getEnv("GEMINI_TEXT_MODEL", "gemini-3-pro-preview")),
		ImageModel:         strings.TrimSpace(getEnv("GEMINI_IMAGE_MODEL", "gemini-3-pro-image-preview")),
		AspectRatio:        strings.TrimSpace(getEnv("AD_ASPECT_RATIO", "4:5")),
		LogoPath:           strings.TrimSpace(getEnv("LOGO_PATH", "data/logo.png")),
		ProductPath:        strings.TrimSpace(getEnv("PRODUCT_PATH", "data/image.png")),
		ReferencesDir:      strings.TrimSpace(getEnv("REFERENCES_DIR", "references")),
		OutputDir:          strings.TrimSpace(getEnv("OUTPUT_DIR", "output_new_1")),
		CampaignFile:       strings.TrimSpace(getEnv("CAMPAIGN_FILE", "data/campaign.yaml")),
		PropSwapPlanner:    getEnvBool("PLANNER_PROP_SWAP", false),
		MaxConcurrent:      getEnvInt("MAX_CONCURRENT", 3),
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 240)) * time.Second,
		HTTPTimeout:        time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 180)) * time.Second,
		MediaGroupDebounce: time.Duration(getEnvInt("MEDIA_GROUP_DEBOUNCE_MS", 1200)) * time.Millisecond,
	}

	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))

	if cfg.GeminiAPIKey == "" {
		return Config{}, errors.New("GEMINI_API_KEY is required")
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 240 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.AspectRatio == "" {
		cfg.AspectRatio = "4:5"
	}

	return cfg, nil
}

func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
