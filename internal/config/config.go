package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir          string // Base directory for the cache database
	Port             int
	DevMode          bool
	LogLevel         string
	ScreenerURL      string // Base URL of the screener service
	ScreenerAPIToken string
	QuotesURL        string // Base URL of the quotes (chart) service
	CacheTTL         time.Duration
	CacheMaxEntries  int // 0 = unbounded
	FetchTimeout     time.Duration
	FetchMaxRetries  int
	EnrichTopN       int // How many ranked symbols get technical confirmation; 0 disables
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		if _, err := os.Stat("./data"); err == nil {
			dataDir = "./data"
		} else {
			dataDir = "../data"
		}
	}

	cfg := &Config{
		DataDir:          dataDir,
		Port:             getEnvAsInt("PORT", 8010),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ScreenerURL:      getEnv("SCREENER_URL", "http://localhost:9100"),
		ScreenerAPIToken: getEnv("SCREENER_API_TOKEN", ""),
		QuotesURL:        getEnv("QUOTES_URL", "https://query1.finance.yahoo.com"),
		CacheTTL:         time.Duration(getEnvAsInt("CACHE_TTL_MINUTES", 10)) * time.Minute,
		CacheMaxEntries:  getEnvAsInt("CACHE_MAX_ENTRIES", 0),
		FetchTimeout:     time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		FetchMaxRetries:  getEnvAsInt("FETCH_MAX_RETRIES", 3),
		EnrichTopN:       getEnvAsInt("ENRICH_TOP_N", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ScreenerURL == "" {
		return fmt.Errorf("SCREENER_URL is required")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.CacheTTL)
	}
	if c.FetchMaxRetries < 1 {
		return fmt.Errorf("fetch max retries must be at least 1, got %d", c.FetchMaxRetries)
	}
	return nil
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt gets environment variable as integer with fallback
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvAsBool gets environment variable as boolean with fallback
func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
