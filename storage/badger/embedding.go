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


package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
	table   *storage.TableInfo
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository opens the embeddings table, creating it with the
// given vector dimension if absent. A dimension of 0 accepts whatever
// dimension the table already has.
func NewEmbeddingRepository(backend *Backend, dimension int) (*EmbeddingRepository, error) {
	table, err := ensureTable(backend, storage.EmbeddingsTable, dimension)
	if err != nil {
		return nil, err
	}
	return &EmbeddingRepository{
		backend: backend,
		table:   table,
	}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// Table returns the descriptor of the embeddings table.
func (r *EmbeddingRepository) Table(ctx context.Context) (*storage.TableInfo, error) {
	info := *r.table
	return &info, nil
}

// FindSimilar delegates to the backend.
func (r *EmbeddingRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// AddEmbeddings appends records in a single transaction.
func (r *EmbeddingRepository) AddEmbeddings(ctx context.Context, records ...*core.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if err := core.ValidateRecord(record, r.table.Dimension); err != nil {
			return err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if err := tx.Set(makeEmbeddingKey(record.ID), storage.MarshalEmbeddingRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		if errors.Is(err, storage.ErrStorageClosed) {
			return err
		}
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return nil
}

// GetEmbedding retrieves a single record by id.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, id string) (*core.EmbeddingRecord, error) {
	var result *core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEmbedding(tx, makeEmbeddingKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetEmbeddings retrieves multiple records by id.
func (r *EmbeddingRepository) GetEmbeddings(ctx context.Context, ids ...string) ([]*core.EmbeddingRecord, error) {
	var result []*core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := readEmbedding(tx, makeEmbeddingKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// ScanIDs returns every stored id starting with prefix.
// Only keys are read; values are never fetched.
func (r *EmbeddingRepository) ScanIDs(ctx context.Context, prefix string) ([]string, error) {
	var ids []string
	err := r.scanKeys(ctx, prefix, func(key []byte) {
		ids = append(ids, idFromEmbeddingKey(key))
	})
	return ids, err
}

// Count returns the number of stored ids starting with prefix.
func (r *EmbeddingRepository) Count(ctx context.Context, prefix string) (int, error) {
	count := 0
	err := r.scanKeys(ctx, prefix, func([]byte) {
		count++
	})
	return count, err
}

func (r *EmbeddingRepository) scanKeys(ctx context.Context, prefix string, fn func(key []byte)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeEmbeddingScanPrefix(prefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(iter.Item().KeyCopy(nil))
		}
		return nil
	}, false)
}

// readEmbedding reads an embedding record from the transaction.
// Returns nil, nil if the key does not exist.
func readEmbedding(tx *badger.Txn, key []byte) (*core.EmbeddingRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.EmbeddingRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalEmbeddingRecord(val)
		return unmarshalErr
	})
	return record, err
}
