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
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/storage"
)

// ensureTable opens the named table, creating its descriptor if absent.
// A table created with dimension 0 adopts the first non-zero dimension
// requested of it.
func ensureTable(backend *Backend, name string, dimension int) (*storage.TableInfo, error) {
	var table *storage.TableInfo
	err := backend.WithTx(func(tx *badger.Txn) error {
		key := makeTableKey(name)
		existing, err := readTable(tx, key)
		if err != nil {
			return err
		}

		if existing != nil {
			switch {
			case dimension == 0 || existing.Dimension == dimension:
				table = existing
				return nil
			case existing.Dimension != 0:
				return fmt.Errorf("%w: table %q has dimension %d, requested %d",
					storage.ErrSchemaMismatch, name, existing.Dimension, dimension)
			}
			existing.Dimension = dimension
			table = existing
		} else {
			table = &storage.TableInfo{
				Name:      name,
				Dimension: dimension,
				CreatedAt: core.EpochSeconds(time.Now()),
			}
			backend.logger.Info("created table", "table", name, "dimension", dimension)
		}

		if err := tx.Set(key, storage.MarshalTableInfo(table)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// readTable reads a table descriptor from the transaction.
// Returns nil, nil if no descriptor exists.
func readTable(tx *badger.Txn, key []byte) (*storage.TableInfo, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var table *storage.TableInfo
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		table, unmarshalErr = storage.UnmarshalTableInfo(val)
		return unmarshalErr
	})
	return table, err
}
