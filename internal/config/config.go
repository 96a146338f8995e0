// Package config reads service settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the server and the CLI.
type Config struct {
	Port     string
	DataDir  string
	Currency string
	LogLevel string
}

// Load reads BDGET_* environment variables, after merging a .env file when
// one exists. Missing variables fall back to development defaults.
func Load() Config {
	// A missing .env is the normal production case.
	_ = godotenv.Load()

	return Config{
		Port:     getenv("BDGET_PORT", "8080"),
		DataDir:  getenv("BDGET_DATA_DIR", "data"),
		Currency: getenv("BDGET_CURRENCY", "USD"),
		LogLevel: getenv("BDGET_LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
