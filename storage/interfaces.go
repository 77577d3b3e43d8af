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


package storage

import (
	"context"

	"github.com/poiesic/vecingest/core"
)

// EmbeddingsTable is the logical table holding embedding records.
const EmbeddingsTable = "embeddings"

// TableInfo describes the logical embeddings table.
type TableInfo struct {
	Name      string
	Dimension int     // Fixed vector length, 0 until the first table open fixes it
	CreatedAt float64 // Epoch seconds
}

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds records whose embedding is similar to the given vector.
	// Returns records with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// Close releases resources held by the repository.
	Close() error
}

// EmbeddingRepository stores append-only embedding records keyed by their
// namespaced identifier.
type EmbeddingRepository interface {
	Repository

	// Table returns the descriptor of the embeddings table.
	Table(ctx context.Context) (*TableInfo, error)

	// AddEmbeddings appends records in a single transaction.
	// Either every record is written or none is.
	// Records are not deduplicated; an existing id is overwritten.
	AddEmbeddings(ctx context.Context, records ...*core.EmbeddingRecord) error

	// GetEmbedding retrieves a single record by id.
	// Returns ErrNotFound if the record doesn't exist.
	GetEmbedding(ctx context.Context, id string) (*core.EmbeddingRecord, error)

	// GetEmbeddings retrieves multiple records by id.
	// Returns only the records that exist (no error for missing records).
	GetEmbeddings(ctx context.Context, ids ...string) ([]*core.EmbeddingRecord, error)

	// ScanIDs returns every stored id starting with prefix.
	// An empty prefix returns all ids.
	ScanIDs(ctx context.Context, prefix string) ([]string, error)

	// Count returns the number of stored ids starting with prefix.
	Count(ctx context.Context, prefix string) (int, error)
}
