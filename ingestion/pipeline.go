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
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/remote"
	"github.com/poiesic/vecingest/storage"
)

// Pipeline defaults.
const (
	DefaultConcurrency    = 5
	DefaultBatchSize      = 5
	DefaultRateLimit      = 60
	defaultReportInterval = 10
)

// Repository is the part of the embedding store a pipeline needs.
type Repository interface {
	IDScanner
	Sink
}

// Pipeline drives ingestion runs: it enumerates work items, skips the ones
// already stored, embeds the rest under bounded concurrency and a rate
// limit, and writes the results to the store in batches.
//
// A Pipeline holds configuration only. Every Run builds its own dedup
// index, rate limiter, governor and batch writer, so runs never share state.
type Pipeline struct {
	repo           Repository
	caller         Caller
	concurrency    int
	batchSize      int
	rateLimit      int
	preflight      Preflight
	progress       io.Writer
	reportInterval int
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithConcurrency sets the maximum number of in-flight tasks.
// Default is DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return ErrInvalidConcurrency
		}
		p.concurrency = n
		return nil
	}
}

// WithBatchSize sets the number of records per store insert.
// Default is DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return ErrInvalidBatchSize
		}
		p.batchSize = n
		return nil
	}
}

// WithRateLimit sets the maximum number of remote calls per minute.
// A value <= 0 disables limiting. Default is DefaultRateLimit.
func WithRateLimit(requestsPerMinute int) Option {
	return func(p *Pipeline) error {
		p.rateLimit = requestsPerMinute
		return nil
	}
}

// WithPreflight installs a check run on every admitted item before it
// passes the rate gate.
func WithPreflight(fn Preflight) Option {
	return func(p *Pipeline) error {
		p.preflight = fn
		return nil
	}
}

// WithProgress writes a progress line to w every interval items.
// Default is no progress output.
func WithProgress(w io.Writer, interval int) Option {
	return func(p *Pipeline) error {
		p.progress = w
		if interval > 0 {
			p.reportInterval = interval
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repo Repository, caller Caller, opts ...Option) (*Pipeline, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if caller == nil {
		return nil, ErrCallerRequired
	}

	p := &Pipeline{
		repo:           repo,
		caller:         caller,
		concurrency:    DefaultConcurrency,
		batchSize:      DefaultBatchSize,
		rateLimit:      DefaultRateLimit,
		progress:       io.Discard,
		reportInterval: defaultReportInterval,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

// run holds the state owned by a single Run call.
type run struct {
	p        *Pipeline
	logger   *slog.Logger
	dedup    *DedupIndex
	limiter  *RateLimiter
	governor *Governor
	writer   *BatchWriter
	progress *ProgressTracker
	cancel   context.CancelFunc

	mu     sync.Mutex
	result core.RunResult
	fatal  error
}

// Run performs one ingestion run over src.
//
// Item failures are folded into the returned RunResult. Only a failure to
// enumerate the source or to reach the store aborts the run; the error is
// then returned together with the counts gathered so far.
func (p *Pipeline) Run(ctx context.Context, src Source) (core.RunResult, error) {
	if src == nil {
		return core.RunResult{}, ErrSourceRequired
	}

	logger := p.logger.With("run", uuid.NewString(), "namespace", src.Namespace())

	items, err := src.Items(ctx)
	if err != nil {
		return core.RunResult{}, fmt.Errorf("%w: %w", ErrEnumeration, err)
	}

	dedup := NewDedupIndex()
	if err := dedup.Load(ctx, p.repo, core.IDPrefix(src.Namespace())); err != nil {
		return core.RunResult{}, fmt.Errorf("%w: loading existing ids: %w", ErrStorage, err)
	}
	logger.Info("starting ingestion",
		"items", len(items),
		"existing", dedup.Len(),
		"concurrency", p.concurrency,
		"batch_size", p.batchSize,
		"rate_limit", p.rateLimit,
	)
	logKinds(logger, items)

	var preSkipped int
	if reporter, ok := src.(SkipReporter); ok {
		preSkipped = reporter.Skipped()
	}

	governor, err := NewGovernor(p.concurrency, logger)
	if err != nil {
		return core.RunResult{}, err
	}
	defer governor.Release()

	writer, err := NewBatchWriter(p.repo, p.batchSize, logger)
	if err != nil {
		return core.RunResult{}, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &run{
		p:        p,
		logger:   logger,
		dedup:    dedup,
		limiter:  NewRateLimiter(p.rateLimit),
		governor: governor,
		writer:   writer,
		progress: NewProgressTracker(p.progress, len(items), p.reportInterval),
		cancel:   cancel,
		result:   core.RunResult{Skipped: preSkipped},
	}
	r.progress.Start()

	for _, item := range items {
		if runCtx.Err() != nil {
			// Aborted: items never admitted are neither failures nor skips.
			break
		}
		if err := core.ValidateWorkItem(item); err != nil {
			r.fail(item, 0, err)
			continue
		}
		if !dedup.Claim(item.ID) {
			r.skip()
			continue
		}
		if err := governor.Submit(func() { r.process(runCtx, item) }); err != nil {
			dedup.Release(item.ID)
			r.fail(item, 0, err)
		}
	}

	governor.Wait()
	r.apply(writer.Flush(context.WithoutCancel(runCtx)))
	r.progress.Finish()

	result, fatal := r.snapshot()
	result.Duration = r.progress.Elapsed()
	logger.Info("ingestion complete",
		"success", result.Success,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"duration", result.Duration.Round(time.Millisecond),
		"rate", result.Rate(),
	)

	if fatal != nil {
		return result, fatal
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// process carries one admitted item from the rate gate to the buffer.
func (r *run) process(ctx context.Context, item *core.WorkItem) {
	if r.p.preflight != nil {
		if err := r.p.preflight(ctx, item); err != nil {
			r.dedup.Release(item.ID)
			r.fail(item, 0, fmt.Errorf("preflight: %w", err))
			return
		}
	}

	if err := r.limiter.Acquire(ctx); err != nil {
		r.dedup.Release(item.ID)
		r.fail(item, 0, err)
		return
	}

	result := r.p.caller.Call(ctx, remote.RequestFromItem(item))
	if !result.OK() {
		r.dedup.Release(item.ID)
		r.fail(item, result.Attempts, result.Err)
		return
	}

	record := core.NewEmbeddingRecord(item, result.Embedding)
	r.logger.Debug("embedded item", "id", item.ID, "kind", item.Kind(), "attempts", result.Attempts)
	r.apply(r.writer.AddAll(context.WithoutCancel(ctx), record))
}

// apply folds a flush outcome into the run: confirmed ids join the dedup
// index, dropped ids lose their claim.
func (r *run) apply(flush FlushResult) {
	if flush.Flushes == 0 {
		return
	}
	r.dedup.Add(flush.WrittenIDs...)
	r.dedup.Release(flush.FailedIDs...)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.result.Success += flush.Written()
	r.result.Failed += flush.Failed()
	for _, id := range flush.FailedIDs {
		r.result.Errors = append(r.result.Errors, core.ErrorDescriptor{ID: id, Message: flush.Err.Error()})
	}
	r.progress.Increment(flush.Written() + flush.Failed())

	if flush.Err != nil && errors.Is(flush.Err, storage.ErrStorageClosed) && r.fatal == nil {
		r.fatal = fmt.Errorf("%w: %w", ErrStorage, flush.Err)
		r.logger.Error("store unavailable, aborting run", "err", flush.Err)
		r.cancel()
	}
}

func (r *run) fail(item *core.WorkItem, attempts int, err error) {
	id := ""
	if item != nil {
		id = item.ID
	}
	r.logger.Warn("item failed", "id", id, "attempts", attempts, "err", err)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Failed++
	r.result.Errors = append(r.result.Errors, core.ErrorDescriptor{ID: id, Message: err.Error(), Attempts: attempts})
	r.progress.Increment(1)
}

func (r *run) skip() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.result.Skipped++
	r.progress.Increment(1)
}

func (r *run) snapshot() (core.RunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result, r.fatal
}

func logKinds(logger *slog.Logger, items []*core.WorkItem) {
	counts := make(map[core.MediaKind]int)
	for _, item := range items {
		if item != nil {
			counts[item.Kind()]++
		}
	}
	logger.Info("work items by kind",
		"text", counts[core.MediaKindText],
		"image", counts[core.MediaKindImage],
		"video", counts[core.MediaKindVideo],
	)
}
