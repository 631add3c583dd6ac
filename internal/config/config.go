package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the CLI defaults loaded from the environment. Flags
// override these values.
type Config struct {
	// Dir is the storage directory (PERSIQ_DIR).
	Dir string
	// Mode selects the storage variant, "fifo" or "latest"
	// (PERSIQ_MODE).
	Mode string
}

// New loads configuration from a .env file, if present, and the
// environment.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Dir:  os.Getenv("PERSIQ_DIR"),
		Mode: os.Getenv("PERSIQ_MODE"),
	}
	if cfg.Mode == "" {
		cfg.Mode = "fifo"
	}
	return cfg
}
