package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost:5432/marketplace")
	t.Setenv("ENV", "")
	t.Setenv("MIGRATIONS_PATH", "")
	t.Setenv("QUOTE_TEACHER_LIMIT", "")
	t.Setenv("QUOTE_SWEEP_INTERVAL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/marketplace", cfg.DBDSN)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, 5, cfg.QuoteTeacherLimit)
	assert.Equal(t, time.Hour, cfg.QuoteSweepInterval)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost:5432/marketplace")
	t.Setenv("ENV", "production")
	t.Setenv("QUOTE_TEACHER_LIMIT", "3")
	t.Setenv("QUOTE_SWEEP_INTERVAL", "15m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 3, cfg.QuoteTeacherLimit)
	assert.Equal(t, 15*time.Minute, cfg.QuoteSweepInterval)
}

func TestLoad_MissingDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost:5432/marketplace")

	t.Setenv("QUOTE_TEACHER_LIMIT", "zero")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("QUOTE_TEACHER_LIMIT", "")
	t.Setenv("QUOTE_SWEEP_INTERVAL", "-5m")
	_, err = Load()
	assert.Error(t, err)
}
