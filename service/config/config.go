package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	sm "github.com/NovaInv/EfficientFrontier/service/models"
)

const (
	SourceYahoo        = "yahoo"
	SourceAlphaVantage = "alphavantage"
)

// Config holds application configuration
type Config struct {
	Tickers            []string
	RiskFreeRate       float64
	LookbackYears      float64
	NumPortfolios      int
	Seed               uint64
	ShowDiagnostics    bool
	SummaryRows        int
	PriceSource        string
	AlphaVantageAPIKey string
	AlphaVantageHost   string
	FetchTimeout       time.Duration
	OutputDir          string
	LogLevel           string
	LogPretty          bool

	// EnvFile is the dotenv file that was loaded, empty when none was found
	EnvFile string
}

// Load reads configuration from a .env file when present and then the environment
func Load() (*Config, error) {
	envFile := ".env"
	if err := godotenv.Load(envFile); err != nil {
		envFile = ""
	}

	cfg := FromEnv()
	cfg.EnvFile = envFile
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv reads every setting from the environment, falling back to defaults
func FromEnv() *Config {
	return &Config{
		Tickers:            getEnvAsList("FRONTIER_TICKERS", []string{"AAPL", "GOOG", "BRK-B", "JNJ"}),
		RiskFreeRate:       getEnvAsFloat("RISK_FREE_RATE", 0.041),
		LookbackYears:      getEnvAsFloat("LOOKBACK_YEARS", 3),
		NumPortfolios:      getEnvAsInt("NUM_PORTFOLIOS", 10_000),
		Seed:               getEnvAsUint64("SEED", 684531561),
		ShowDiagnostics:    getEnvAsBool("SHOW_DIAGNOSTICS", false),
		SummaryRows:        getEnvAsInt("SUMMARY_ROWS", 5),
		PriceSource:        strings.ToLower(getEnv("PRICE_SOURCE", SourceYahoo)),
		AlphaVantageAPIKey: getEnv("ALPHAVANTAGE_API_KEY", ""),
		AlphaVantageHost:   getEnv("ALPHAVANTAGE_HOST", ""),
		FetchTimeout:       getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
		OutputDir:          getEnv("OUTPUT_DIR", "."),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogPretty:          getEnvAsBool("LOG_PRETTY", true),
	}
}

// Validate checks what can be checked before any flag overrides are applied
func (c *Config) Validate() error {
	switch c.PriceSource {
	case SourceYahoo:
	case SourceAlphaVantage:
		if c.AlphaVantageAPIKey == "" {
			return fmt.Errorf("ALPHAVANTAGE_API_KEY is required when PRICE_SOURCE is %s", SourceAlphaVantage)
		}
	default:
		return fmt.Errorf("unknown PRICE_SOURCE %q, expected %s or %s", c.PriceSource, SourceYahoo, SourceAlphaVantage)
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %v", c.FetchTimeout)
	}

	return nil
}

// Settings builds the immutable run settings, the ticker slice is copied
func (c *Config) Settings(today time.Time) sm.FrontierSettings {
	s := sm.FrontierSettings{
		RiskFreeRate:    c.RiskFreeRate,
		LookbackYears:   c.LookbackYears,
		NumPortfolios:   c.NumPortfolios,
		Seed:            c.Seed,
		ShowDiagnostics: c.ShowDiagnostics,
		SummaryRows:     c.SummaryRows,
		FetchTimeout:    c.FetchTimeout,
		Today:           today,
	}
	return s.WithTickers(c.Tickers)
}

// ParseTickers splits a comma separated list, trimming and upper casing each entry
func ParseTickers(value string) []string {
	var tickers []string
	for _, t := range strings.Split(value, ",") {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			tickers = append(tickers, t)
		}
	}
	return tickers
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return ParseTickers(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		warnIgnored(key, value)
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintVal, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintVal
		}
		warnIgnored(key, value)
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
		warnIgnored(key, value)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		warnIgnored(key, value)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		warnIgnored(key, value)
	}
	return defaultValue
}

func warnIgnored(key, value string) {
	log.Warn().Str("key", key).Str("value", value).Msg("ignoring unparsable environment value, using default")
}
