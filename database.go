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


// Package vecingest ties the embedding store, the remote embedding client,
// ingestion pipelines and similarity search together behind one handle.
package vecingest

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/ingestion"
	"github.com/poiesic/vecingest/remote"
	"github.com/poiesic/vecingest/search"
	"github.com/poiesic/vecingest/storage"
	"github.com/poiesic/vecingest/storage/badger"
)

// Database is an open embedding store plus the client used to fill it.
type Database struct {
	backend *badger.Backend
	repo    storage.EmbeddingRepository
	caller  *remote.RetryingClient
	logger  *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	dimension     int
	encryptionKey []byte
	inMemory      bool
	client        remote.Client
	endpoint      string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	retryDelay    time.Duration
	logger        *slog.Logger
}

// WithDimension fixes the vector length of the store and checks every
// embedding against it. Zero accepts the dimension the store already has.
func WithDimension(dimension int) DatabaseOption {
	return func(o *databaseOptions) {
		o.dimension = dimension
	}
}

// WithEncryptionKey encrypts the store at rest. The key must be 16, 24 or 32 bytes.
func WithEncryptionKey(key []byte) DatabaseOption {
	return func(o *databaseOptions) {
		o.encryptionKey = key
	}
}

// InMemory opens a store that is discarded on Close. The path is ignored.
func InMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// WithEndpoint sets the remote /embed endpoint and its API key.
func WithEndpoint(endpoint, apiKey string) DatabaseOption {
	return func(o *databaseOptions) {
		o.endpoint = endpoint
		o.apiKey = apiKey
	}
}

// WithClient sets the remote client directly. It takes precedence over WithEndpoint.
func WithClient(client remote.Client) DatabaseOption {
	return func(o *databaseOptions) {
		o.client = client
	}
}

// WithTimeout bounds each remote call.
func WithTimeout(timeout time.Duration) DatabaseOption {
	return func(o *databaseOptions) {
		o.timeout = timeout
	}
}

// WithRetry sets the attempt budget and base backoff of remote calls.
func WithRetry(maxRetries int, delay time.Duration) DatabaseOption {
	return func(o *databaseOptions) {
		o.maxRetries = maxRetries
		o.retryDelay = delay
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewDatabase opens (or creates) the store at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		timeout:    remote.DefaultTimeout,
		maxRetries: remote.DefaultMaxRetries,
		retryDelay: remote.DefaultRetryDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backendOpts := []badger.BackendOption{badger.WithLogger(options.logger)}
	if len(options.encryptionKey) > 0 {
		backendOpts = append(backendOpts, badger.WithEncryptionKey(options.encryptionKey))
	}
	backend, err := badger.OpenBackend(filePath, options.inMemory, backendOpts...)
	if err != nil {
		return nil, err
	}

	repo, err := badger.NewEmbeddingRepository(backend, options.dimension)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// The caller checks vectors against the stored dimension when none was requested.
	if table, err := repo.Table(context.Background()); err == nil && options.dimension == 0 {
		options.dimension = table.Dimension
	}

	caller, err := newCaller(options)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend: backend,
		repo:    repo,
		caller:  caller,
		logger:  options.logger,
	}, nil
}

// newCaller builds the retrying client, or returns nil when no endpoint is set.
func newCaller(o *databaseOptions) (*remote.RetryingClient, error) {
	client := o.client
	if client == nil {
		if o.endpoint == "" {
			return nil, nil
		}
		var err error
		client, err = remote.NewHTTPClient(o.endpoint, o.apiKey,
			remote.WithTimeout(o.timeout),
			remote.WithHTTPLogger(o.logger),
		)
		if err != nil {
			return nil, err
		}
	}
	return remote.NewRetryingClient(client,
		remote.WithMaxRetries(o.maxRetries),
		remote.WithRetryDelay(o.retryDelay),
		remote.WithDimension(o.dimension),
		remote.WithLogger(o.logger),
	)
}

// Close releases the store.
func (db *Database) Close() error {
	if err := db.repo.Close(); err != nil {
		db.logger.Error("error closing embedding repository", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Repository returns the embedding repository.
func (db *Database) Repository() storage.EmbeddingRepository {
	return db.repo
}

// Caller returns the retrying remote client.
func (db *Database) Caller() (*remote.RetryingClient, error) {
	if db.caller == nil {
		return nil, ErrNoEndpoint
	}
	return db.caller, nil
}

// NewPipeline creates an ingestion pipeline writing to this store.
func (db *Database) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	caller, err := db.Caller()
	if err != nil {
		return nil, err
	}
	return ingestion.NewPipeline(db.repo, caller, append([]ingestion.Option{ingestion.WithLogger(db.logger)}, opts...)...)
}

// NewSearcher creates a searcher over this store.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	caller, err := db.Caller()
	if err != nil {
		return nil, err
	}
	return search.NewSearcher(db.repo, caller, append([]search.Option{search.WithLogger(db.logger)}, opts...)...)
}

// Stats summarizes the store contents.
type Stats struct {
	Dimension   int
	CreatedAt   time.Time
	Total       int
	ByNamespace map[string]int
}

// Namespaces returns the namespaces present, sorted.
func (s *Stats) Namespaces() []string {
	return slices.Sorted(maps.Keys(s.ByNamespace))
}

// Stats counts stored records per namespace.
func (db *Database) Stats(ctx context.Context) (*Stats, error) {
	table, err := db.repo.Table(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := db.repo.ScanIDs(ctx, "")
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Dimension:   table.Dimension,
		CreatedAt:   time.Unix(0, int64(table.CreatedAt*float64(time.Second))),
		Total:       len(ids),
		ByNamespace: make(map[string]int),
	}
	for _, id := range ids {
		stats.ByNamespace[core.Namespace(id)]++
	}
	return stats, nil
}
