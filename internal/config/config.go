// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DataDir      string // Base directory for the sqlite databases (always absolute)
	BrapiToken   string // brapi.dev API token; empty disables live quotes
	BrapiBaseURL string
	LogLevel     string
	Port         int
	DevMode      bool

	Engine EngineConfig
}

// EngineConfig holds the default parameters for the allocation engine.
// Every value can be overridden per request; these are the fallbacks.
type EngineConfig struct {
	RelativeBand       float64 // relative tolerance as a fraction of target weight
	AbsoluteBand       float64 // absolute tolerance in percentage points
	RiskFreeRate       float64 // annualized fraction (SELIC)
	BlendFactor        float64 // 0 = keep current targets, 1 = fully optimizer-driven
	MaxOrders          int     // cap on distinct buy tickers per plan
	TradingDaysPerYear int     // annualization constant
	LookbackDays       int     // history window fed to the optimizer
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CARTEIRA_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:      absDataDir,
		BrapiToken:   getEnv("BRAPI_TOKEN", ""),
		BrapiBaseURL: getEnv("BRAPI_BASE_URL", "https://brapi.dev/api"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnvAsInt("PORT", 8000),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		Engine: EngineConfig{
			RelativeBand:       getEnvAsFloat("REBALANCE_RELATIVE_BAND", 0.20),
			AbsoluteBand:       getEnvAsFloat("REBALANCE_ABSOLUTE_BAND", 1.5),
			RiskFreeRate:       getEnvAsFloat("RISK_FREE_RATE", 0.15),
			BlendFactor:        getEnvAsFloat("OPTIMIZER_BLEND_FACTOR", 0.30),
			MaxOrders:          getEnvAsInt("REBALANCE_MAX_ORDERS", 5),
			TradingDaysPerYear: getEnvAsInt("TRADING_DAYS_PER_YEAR", 252),
			LookbackDays:       getEnvAsInt("OPTIMIZER_LOOKBACK_DAYS", 504),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values the engine depends on are sane.
func (c *Config) Validate() error {
	if c.Engine.MaxOrders <= 0 {
		return fmt.Errorf("REBALANCE_MAX_ORDERS must be positive, got %d", c.Engine.MaxOrders)
	}
	if c.Engine.TradingDaysPerYear <= 0 {
		return fmt.Errorf("TRADING_DAYS_PER_YEAR must be positive, got %d", c.Engine.TradingDaysPerYear)
	}
	if c.Engine.BlendFactor < 0 || c.Engine.BlendFactor > 1 {
		return fmt.Errorf("OPTIMIZER_BLEND_FACTOR must be in [0,1], got %f", c.Engine.BlendFactor)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
