package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN              string
	Environment        string
	MigrationsPath     string
	QuoteTeacherLimit  int
	QuoteSweepInterval time.Duration
}

func Load() (*Config, error) {
	// Try to load a .env file; missing file is fine, plain env works too.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		Environment:    os.Getenv("ENV"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}

	cfg.QuoteTeacherLimit = 5
	if raw := os.Getenv("QUOTE_TEACHER_LIMIT"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("QUOTE_TEACHER_LIMIT must be a positive integer, got %q", raw)
		}
		cfg.QuoteTeacherLimit = limit
	}

	cfg.QuoteSweepInterval = time.Hour
	if raw := os.Getenv("QUOTE_SWEEP_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil || interval <= 0 {
			return nil, fmt.Errorf("QUOTE_SWEEP_INTERVAL must be a positive duration, got %q", raw)
		}
		cfg.QuoteSweepInterval = interval
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}
