package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultHourlyRate is the fixed billing rate used to derive cost from
// tracked seconds. Cost is never stored independently of seconds.
const DefaultHourlyRate = 60.0

// Config holds all runtime configuration for the buildboard server.
type Config struct {
	ListenAddr string
	DBPath     string
	BlobDir    string
	Debug      bool

	HourlyRate      float64
	ProviderTimeout time.Duration

	// Provider credentials. Empty means the provider is unconfigured and is
	// skipped by the fallback chain.
	CloudflareAccountID string
	CloudflareAPIToken  string
	AnthropicAPIKey     string
	OpenAIAPIKey        string
}

// Load builds the configuration from defaults, a .env file if present, and
// environment variable overrides (env wins over .env via godotenv semantics).
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:      ":8787",
		DBPath:          defaultDBPath(),
		BlobDir:         defaultBlobDir(),
		HourlyRate:      DefaultHourlyRate,
		ProviderTimeout: 30 * time.Second,
	}

	if val := os.Getenv("BUILDBOARD_ADDR"); val != "" {
		cfg.ListenAddr = val
	}
	if val := os.Getenv("BUILDBOARD_DB_PATH"); val != "" {
		cfg.DBPath = val
	}
	if val := os.Getenv("BUILDBOARD_BLOB_DIR"); val != "" {
		cfg.BlobDir = val
	}
	if os.Getenv("BUILDBOARD_DEBUG") == "1" {
		cfg.Debug = true
	}
	if val := os.Getenv("BUILDBOARD_HOURLY_RATE"); val != "" {
		if rate, err := strconv.ParseFloat(val, 64); err == nil && rate > 0 {
			cfg.HourlyRate = rate
		}
	}
	if val := os.Getenv("BUILDBOARD_PROVIDER_TIMEOUT_SECONDS"); val != "" {
		if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
			cfg.ProviderTimeout = time.Duration(secs) * time.Second
		}
	}

	cfg.CloudflareAccountID = os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	cfg.CloudflareAPIToken = os.Getenv("CLOUDFLARE_API_TOKEN")
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")

	return cfg
}

func defaultDBPath() string {
	return filepath.Join(dataHome(), "buildboard.db")
}

func defaultBlobDir() string {
	return filepath.Join(dataHome(), "blobs")
}

func dataHome() string {
	if dir := os.Getenv("BUILDBOARD_HOME"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".buildboard"
	}
	return filepath.Join(homeDir, ".buildboard")
}
