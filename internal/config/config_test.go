package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:       AppConfig{Environment: "development"},
		Logger:    LoggerConfig{Level: "info"},
		Data:      DataConfig{Path: "/some/path"},
		Auth:      AuthConfig{AccessTokenDuration: time.Hour},
		Bulk:      BulkConfig{Concurrency: 8},
		RateLimit: RateLimitConfig{RPS: 10, Burst: 20},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_RejectsBadTuning(t *testing.T) {
	cfg := validConfig()
	cfg.Bulk.Concurrency = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.RateLimit.Burst = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Logger.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"# comment\nBULK_CONCURRENCY=3\nRATE_LIMIT_BURST=\"7\"\nSERVER_PORT=9000\n"), 0o600))

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("DATA_PATH", dir)
	// Cleared so the .env file supplies them.
	t.Setenv("BULK_CONCURRENCY", "")
	t.Setenv("RATE_LIMIT_BURST", "")

	cfg, err := Load([]string{"-env-file", envFile, "-port", "9200", "-access-token-duration", "2h"})
	require.NoError(t, err)

	assert.Equal(t, "9200", cfg.Server.Port, "flag beats env and .env")
	assert.Equal(t, 3, cfg.Bulk.Concurrency, ".env fills unset env vars")
	assert.Equal(t, 7, cfg.RateLimit.Burst)
	assert.Equal(t, 2*time.Hour, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, dir, cfg.Data.Path)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	_, err := Load([]string{"-env-file", "/nonexistent/.env", "-read-timeout", "soon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_READ_TIMEOUT")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitList(" https://a.example, ,https://b.example "))
	assert.Nil(t, splitList(""))
}
