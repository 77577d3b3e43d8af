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


package mock

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/poiesic/vecingest/ai"
)

// Model is a deterministic ai.Model for tests and dry runs.
type Model struct {
	// EmbedFunc is called by Embed if set.
	// If nil, uses default deterministic behavior.
	EmbedFunc func(ctx context.Context, in ai.Input) ([]float32, error)

	// Rank is the worker rank the model was created for.
	Rank int

	// Shard makes the model report itself as sharded across ranks.
	Shard bool

	dimension int
	mu        sync.Mutex
	calls     int
	closed    bool
}

var (
	_ ai.Model   = (*Model)(nil)
	_ ai.Sharded = (*Model)(nil)
)

// NewModel creates a mock model producing vectors of the given dimension.
// Note: Returns concrete type to allow test assertions.
func NewModel(dimension int) *Model {
	return &Model{dimension: dimension}
}

// Factory returns a ModelFactory creating one mock model per rank.
func Factory(dimension int) ai.ModelFactory {
	return func(ctx context.Context, rank, worldSize int) (ai.Model, error) {
		m := NewModel(dimension)
		m.Rank = rank
		return m, nil
	}
}

// Embed returns a deterministic embedding for in.
func (m *Model) Embed(ctx context.Context, in ai.Input) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, in)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return Vector(in.Prompt()+"|"+in.ImagePath+"|"+in.VideoPath, m.dimension), nil
}

// Sharded returns the Shard setting.
func (m *Model) Sharded() bool {
	return m.Shard
}

// Dimension returns the configured vector length.
func (m *Model) Dimension() int {
	return m.dimension
}

// Close marks the model closed.
func (m *Model) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// CallCount returns the number of Embed calls.
func (m *Model) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *Model) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Vector expands an FNV hash of key into a unit vector of length dim.
func Vector(key string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := range vector {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000)/1000.0 + 0.001
	}
	return ai.NormalizeVector(vector)
}
