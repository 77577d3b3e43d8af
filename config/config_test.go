package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./vecingest.db", cfg.Store)
	assert.Equal(t, 1536, cfg.Dimension)
	assert.Equal(t, 5, cfg.Concurrency)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, 60, cfg.RateLimit)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
	assert.Equal(t, ":8000", cfg.ListenAddr)
	assert.Equal(t, 1, cfg.WorldSize)
	assert.Equal(t, 12355, cfg.MasterPort)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FAL_ENDPOINT", "https://fal.run/acme/embed")
	t.Setenv("FAL_KEY", "secret")
	t.Setenv("VECINGEST_CONCURRENCY", "12")
	t.Setenv("VECINGEST_RATE_LIMIT", "0")
	t.Setenv("VECINGEST_RETRY_DELAY", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://fal.run/acme/embed", cfg.Endpoint)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 12, cfg.Concurrency)
	assert.Zero(t, cfg.RateLimit)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.NoError(t, cfg.ValidateRemote())
}

func TestLoad_FromEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("VECINGEST_STORE=/data/vectors\nVECINGEST_BATCH_SIZE=20\n"), 0o644))
	t.Setenv("VECINGEST_BATCH_SIZE", "7")
	t.Cleanup(func() { os.Unsetenv("VECINGEST_STORE") })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/vectors", cfg.Store)
	assert.Equal(t, 7, cfg.BatchSize, "the environment wins over .env")
}

func TestLoad_InvalidNumber(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VECINGEST_CONCURRENCY", "many")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Store: "db", Dimension: 4, Concurrency: 1, BatchSize: 1, MaxRetries: 1, WorldSize: 1}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"missing store", func(c *Config) { c.Store = "" }, ErrMissingRequired},
		{"short store key", func(c *Config) { c.StoreKey = "short" }, ErrInvalidValue},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, ErrInvalidValue},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidValue},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, ErrInvalidValue},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}

	cfg := valid()
	cfg.StoreKey = "0123456789abcdef"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRemote(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateRemote()
	assert.ErrorIs(t, err, ErrMissingRequired)
	assert.ErrorContains(t, err, "FAL_ENDPOINT")

	cfg.Endpoint = "https://fal.run/acme/embed"
	err = cfg.ValidateRemote()
	assert.ErrorIs(t, err, ErrMissingRequired)
	assert.ErrorContains(t, err, "FAL_KEY")

	cfg.APIKey = "secret"
	assert.NoError(t, cfg.ValidateRemote())
}

func TestLoad_DefersValidation(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VECINGEST_STORE_KEY", "short")

	cfg, err := Load()
	require.NoError(t, err, "a bad setting must not stop unrelated commands")
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidValue)
	assert.ErrorIs(t, ValidateStoreKey(cfg.StoreKey), ErrInvalidValue)
}

func TestModel(t *testing.T) {
	cfg := &Config{ModelHost: "http://gpu:8080", ModelName: "qwen", Dimension: 1536, WorldSize: 2}

	model := cfg.Model()
	require.NoError(t, model.Validate())
	assert.Equal(t, "http://gpu:8080/v1", model.Host)
	assert.Equal(t, "qwen", model.Model)
	assert.Equal(t, 2, model.WorldSize)
	assert.Equal(t, 1536, model.Dimension)
}
