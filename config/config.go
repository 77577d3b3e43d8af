// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config loads vecingest settings from the environment.
//
// Variables are read from the process environment after an optional .env
// file in the working directory has been applied. Variables already set in
// the environment win over the file.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/poiesic/vecingest/ai"
)

// Config holds every setting the CLI can take from the environment.
type Config struct {
	// Remote embedding endpoint used by ingestion and search.
	Endpoint   string        `envconfig:"FAL_ENDPOINT"`
	APIKey     string        `envconfig:"FAL_KEY"`
	Timeout    time.Duration `envconfig:"VECINGEST_TIMEOUT" default:"5m"`
	MaxRetries int           `envconfig:"VECINGEST_MAX_RETRIES" default:"3"`
	RetryDelay time.Duration `envconfig:"VECINGEST_RETRY_DELAY" default:"1s"`

	// Vector store.
	Store     string `envconfig:"VECINGEST_STORE" default:"./vecingest.db"`
	StoreKey  string `envconfig:"VECINGEST_STORE_KEY"`
	Dimension int    `envconfig:"VECINGEST_DIMENSION" default:"1536"`

	// Ingestion.
	Concurrency int `envconfig:"VECINGEST_CONCURRENCY" default:"5"`
	BatchSize   int `envconfig:"VECINGEST_BATCH_SIZE" default:"5"`
	RateLimit   int `envconfig:"VECINGEST_RATE_LIMIT" default:"60"`

	// Serving side.
	ListenAddr string `envconfig:"VECINGEST_LISTEN" default:":8000"`
	ModelHost  string `envconfig:"VECINGEST_MODEL_HOST" default:"http://localhost:11434/v1"`
	ModelName  string `envconfig:"VECINGEST_MODEL" default:"embeddinggemma"`
	ModelToken string `envconfig:"VECINGEST_MODEL_TOKEN"`
	WorldSize  int    `envconfig:"VECINGEST_WORLD_SIZE" default:"1"`
	MasterAddr string `envconfig:"MASTER_ADDR" default:"localhost"`
	MasterPort int    `envconfig:"MASTER_PORT" default:"12355"`
}

// Load reads .env (if present) and the environment. Only malformed values
// fail here; commands validate the settings they use.
func Load() (*Config, error) {
	// Ignore errors, as env vars might be set in the shell
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the store and ingestion settings. Serving settings are
// checked by ai.Config.Validate.
func (c *Config) Validate() error {
	if c.Store == "" {
		return fmt.Errorf("%w: VECINGEST_STORE", ErrMissingRequired)
	}
	if err := ValidateStoreKey(c.StoreKey); err != nil {
		return err
	}

	positive := []struct {
		name  string
		value int
	}{
		{"VECINGEST_DIMENSION", c.Dimension},
		{"VECINGEST_CONCURRENCY", c.Concurrency},
		{"VECINGEST_BATCH_SIZE", c.BatchSize},
		{"VECINGEST_MAX_RETRIES", c.MaxRetries},
	}
	for _, p := range positive {
		if p.value < 1 {
			return fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalidValue, p.name, p.value)
		}
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: VECINGEST_RATE_LIMIT must not be negative", ErrInvalidValue)
	}
	return nil
}

// ValidateRemote checks the settings needed to call the embedding endpoint.
func (c *Config) ValidateRemote() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: FAL_ENDPOINT", ErrMissingRequired)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: FAL_KEY", ErrMissingRequired)
	}
	return nil
}

// ValidateStoreKey checks that key is empty or a valid AES key length.
func ValidateStoreKey(key string) error {
	if n := len(key); n != 0 && n != 16 && n != 24 && n != 32 {
		return fmt.Errorf("%w: VECINGEST_STORE_KEY must be 16, 24 or 32 bytes, got %d", ErrInvalidValue, n)
	}
	return nil
}

// Model returns the serving-side model configuration.
func (c *Config) Model() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.ModelHost),
		ai.WithModel(c.ModelName),
		ai.WithToken(c.ModelToken),
		ai.WithDimension(c.Dimension),
		ai.WithWorldSize(c.WorldSize),
	)
}
