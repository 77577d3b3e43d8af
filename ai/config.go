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


package ai

import (
	"fmt"
	"strings"

	"github.com/poiesic/vecingest/core"
)

// Config holds configuration for the serving-side model.
type Config struct {
	// Host is the base URL of an OpenAI-compatible embeddings API.
	// Example: "http://localhost:11434/v1"
	Host string

	// Model is the model identifier passed to the API.
	// Example: "embeddinggemma", "text-embedding-3-small"
	Model string

	// Token is the API token. Local servers usually accept any value.
	Token string

	// Dimension is the expected embedding length. Zero disables the check.
	Dimension int

	// WorldSize is the number of workers a model is sharded across.
	WorldSize int

	// MaxPixels and FPS are the default processing hints for media inputs.
	MaxPixels int
	FPS       float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the API host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithDimension sets the expected embedding length.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithWorldSize sets the number of workers.
func WithWorldSize(n int) ConfigOption {
	return func(c *Config) {
		c.WorldSize = n
	}
}

// DefaultConfig returns a Config for a local OpenAI-compatible server and a
// single worker.
func DefaultConfig() *Config {
	return &Config{
		Host:      "http://localhost:11434/v1",
		Model:     "embeddinggemma",
		Token:     "none",
		WorldSize: 1,
		MaxPixels: core.DefaultMaxPixels,
		FPS:       core.DefaultFPS,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434"),
//	    WithModel("text-embedding-3-small"),
//	    WithWorldSize(2),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix most OpenAI-compatible APIs expect.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
	if c.Token == "" {
		c.Token = "none"
	}
}

// Validate normalizes the configuration and checks that it is complete.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return fmt.Errorf("%w: Host is required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: Model is required", ErrInvalidConfig)
	}
	if c.WorldSize < 1 {
		return fmt.Errorf("%w: WorldSize must be at least 1", ErrInvalidConfig)
	}
	if c.Dimension < 0 {
		return fmt.Errorf("%w: Dimension must not be negative", ErrInvalidConfig)
	}
	return nil
}
