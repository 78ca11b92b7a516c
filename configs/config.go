package configs

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Trading  TradingConfig
	Monitor  MonitorConfig
	Catalog  CatalogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// TradingConfig holds account-creation bounds
type TradingConfig struct {
	// MinInitialBalance is the smallest opening balance accepted at signup.
	MinInitialBalance float64
	// DefaultCommissionPercent is used when signup supplies no rate,
	// expressed as a percentage (0.005 means 0.005%).
	DefaultCommissionPercent float64
}

// MonitorConfig holds stop-trigger monitor settings
type MonitorConfig struct {
	// Interval between sweeps; also the grid the catch-up reconciler
	// replays over, so changing it re-spaces historical boundaries.
	Interval time.Duration
}

// CatalogConfig holds asset-catalog settings
type CatalogConfig struct {
	// Refresh controls whether the S&P 500 list is fetched on startup or
	// only the packaged fallback is used.
	Refresh bool
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Trading: TradingConfig{
			MinInitialBalance:        getEnvFloat("MIN_INITIAL_BALANCE", 40000),
			DefaultCommissionPercent: getEnvFloat("DEFAULT_COMMISSION_PERCENT", 0.005),
		},
		Monitor: MonitorConfig{
			Interval: time.Duration(getEnvInt("MONITOR_INTERVAL_MINUTES", 10)) * time.Minute,
		},
		Catalog: CatalogConfig{
			Refresh: getEnvBool("CATALOG_REFRESH", true),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
