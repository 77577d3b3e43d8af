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


// Package storage provides the storage abstraction layer for vecingest.
//
// This package defines the repository interface that decouples the embedding
// store from the ingestion pipeline. The only production backend is BadgerDB
// (see storage/badger), but the pipeline depends solely on
// EmbeddingRepository so tests can substitute fakes.
//
// # The embeddings table
//
// Records live in a single logical table, "embeddings", with the fields
// id, embedding, text, imageUrl, videoUrl and createdAt. The table is
// created on first open and its vector dimension is fixed from then on;
// reopening with a different dimension fails with ErrSchemaMismatch.
//
// Identifiers are namespaced by source ("laion_<hash>", "pexels_<id>") so
// that prefix scans can hydrate a per-source dedup set:
//
//	ids, err := repo.ScanIDs(ctx, "laion_")
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	repo, err := badger.NewEmbeddingRepository(backend, 1536)
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository(8)
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
