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


package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/poiesic/vecingest/core"
)

// Sink persists a batch of records in a single transaction.
type Sink interface {
	AddEmbeddings(ctx context.Context, records ...*core.EmbeddingRecord) error
}

// FlushResult reports the outcome of the flushes triggered by one call.
type FlushResult struct {
	Flushes    int
	WrittenIDs []string
	FailedIDs  []string
	Err        error // Last flush error, nil if every flush succeeded
}

// Written returns the number of records confirmed by the store.
func (r FlushResult) Written() int { return len(r.WrittenIDs) }

// Failed returns the number of records dropped by failed flushes.
func (r FlushResult) Failed() int { return len(r.FailedIDs) }

func (r *FlushResult) merge(other FlushResult) {
	r.Flushes += other.Flushes
	r.WrittenIDs = append(r.WrittenIDs, other.WrittenIDs...)
	r.FailedIDs = append(r.FailedIDs, other.FailedIDs...)
	if other.Err != nil {
		r.Err = other.Err
	}
}

// BatchWriter buffers records and writes them to a Sink in batches of a
// fixed size. A failed batch is dropped and reported, never retried.
type BatchWriter struct {
	mu        sync.Mutex
	sink      Sink
	batchSize int
	buffer    []*core.EmbeddingRecord
	logger    *slog.Logger
}

// NewBatchWriter creates a writer flushing every batchSize records.
func NewBatchWriter(sink Sink, batchSize int, logger *slog.Logger) (*BatchWriter, error) {
	if sink == nil {
		return nil, ErrSinkRequired
	}
	if batchSize < 1 {
		return nil, ErrInvalidBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchWriter{
		sink:      sink,
		batchSize: batchSize,
		buffer:    make([]*core.EmbeddingRecord, 0, batchSize),
		logger:    logger,
	}, nil
}

// AddAll appends records to the buffer, writing a batch every time the
// buffer reaches the batch size.
func (w *BatchWriter) AddAll(ctx context.Context, records ...*core.EmbeddingRecord) FlushResult {
	var result FlushResult
	for _, batch := range w.append(records) {
		result.merge(w.write(ctx, batch))
	}
	return result
}

// Flush writes any buffered records regardless of batch size.
func (w *BatchWriter) Flush(ctx context.Context) FlushResult {
	w.mu.Lock()
	batch := w.buffer
	w.buffer = make([]*core.EmbeddingRecord, 0, w.batchSize)
	w.mu.Unlock()

	if len(batch) == 0 {
		return FlushResult{}
	}
	return w.write(ctx, batch)
}

// Pending returns the number of buffered records.
func (w *BatchWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer)
}

// append adds records under the lock and detaches every full batch so
// that writes happen without holding it. A detached batch is owned by
// exactly one caller.
func (w *BatchWriter) append(records []*core.EmbeddingRecord) [][]*core.EmbeddingRecord {
	w.mu.Lock()
	defer w.mu.Unlock()

	var full [][]*core.EmbeddingRecord
	for _, record := range records {
		w.buffer = append(w.buffer, record)
		if len(w.buffer) >= w.batchSize {
			full = append(full, w.buffer)
			w.buffer = make([]*core.EmbeddingRecord, 0, w.batchSize)
		}
	}
	return full
}

func (w *BatchWriter) write(ctx context.Context, batch []*core.EmbeddingRecord) FlushResult {
	ids := make([]string, len(batch))
	for i, record := range batch {
		ids[i] = record.ID
	}

	if err := w.sink.AddEmbeddings(ctx, batch...); err != nil {
		w.logger.Error("batch insert failed, dropping records", "records", len(batch), "err", err)
		return FlushResult{Flushes: 1, FailedIDs: ids, Err: errors.Join(ErrFlushFailed, err)}
	}

	w.logger.Debug("batch inserted", "records", len(batch))
	return FlushResult{Flushes: 1, WrittenIDs: ids}
}
