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


package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/vecingest/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Model implements ai.Model using an OpenAI-compatible embeddings API.
type Model struct {
	embedder  embeddings.Embedder
	dimension int
	logger    *slog.Logger
}

var _ ai.Model = (*Model)(nil)

// newModel is an internal constructor that returns the concrete type.
func newModel(config *ai.Config) (*Model, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Model{
		embedder:  embedder,
		dimension: config.Dimension,
		logger:    slog.Default().With("component", "openai-model"),
	}, nil
}

// NewModel creates a text model using the provided configuration.
//
// Returns ai.Model interface to enforce abstraction.
func NewModel(config *ai.Config) (ai.Model, error) {
	return newModel(config)
}

// Factory returns a ModelFactory that creates one client per rank.
// Every rank talks to the same API.
func Factory(config *ai.Config) ai.ModelFactory {
	return func(ctx context.Context, rank, worldSize int) (ai.Model, error) {
		m, err := newModel(config)
		if err != nil {
			return nil, err
		}
		m.logger = m.logger.With("rank", rank)
		return m, nil
	}
}

// Embed generates the embedding for a text input.
func (m *Model) Embed(ctx context.Context, in ai.Input) ([]float32, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.ImagePath != "" || in.VideoPath != "" {
		return nil, fmt.Errorf("%w: %s", ai.ErrUnsupportedInput, in.Kind())
	}

	m.logger.Debug("generating embedding", "length", len(in.Text))

	vec, err := m.embedder.EmbedQuery(ctx, in.Text)
	if err != nil {
		m.logger.Error("failed to generate embedding", "err", err)
		return nil, err
	}

	if m.dimension > 0 && len(vec) != m.dimension {
		return nil, fmt.Errorf("embedding dimension %d, expected %d", len(vec), m.dimension)
	}
	return ai.NormalizeVector(vec), nil
}

// Dimension returns the configured dimension, zero when unchecked.
func (m *Model) Dimension() int {
	return m.dimension
}

// Close releases resources held by the model.
// Currently a no-op as the underlying client doesn't require explicit cleanup.
func (m *Model) Close() error {
	m.logger.Debug("closing OpenAI model")
	return nil
}
