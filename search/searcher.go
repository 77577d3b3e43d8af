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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/remote"
	"github.com/poiesic/vecingest/storage"
)

const (
	// DefaultMinSimilarity is the cosine similarity floor for a match.
	DefaultMinSimilarity float32 = 0.3

	verbatimBoost float32 = 0.3

	// overfetch widens the similarity scan so boosted hits ranked just
	// below the cut can still be promoted.
	overfetch = 3
)

// Caller embeds a query. *remote.RetryingClient satisfies it.
type Caller interface {
	Call(ctx context.Context, req *remote.Request) remote.Result
}

// Query is what a search embeds. Exactly one of the fields is normally set.
type Query struct {
	Text     string
	ImageURL string
	VideoURL string
}

func (q Query) empty() bool {
	return strings.TrimSpace(q.Text) == "" && q.ImageURL == "" && q.VideoURL == ""
}

func (q Query) request() *remote.Request {
	return &remote.Request{Text: q.Text, ImageURL: q.ImageURL, VideoURL: q.VideoURL}
}

// Searcher finds stored records similar to a query.
type Searcher struct {
	repo          storage.EmbeddingRepository
	caller        Caller
	minSimilarity float32
	namespace     string
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithMinSimilarity sets the similarity floor.
// Default is DefaultMinSimilarity.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = min
		return nil
	}
}

// WithNamespace restricts results to ids in namespace.
func WithNamespace(namespace string) Option {
	return func(s *Searcher) error {
		s.namespace = namespace
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repo storage.EmbeddingRepository, caller Caller, opts ...Option) (*Searcher, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if caller == nil {
		return nil, ErrCallerRequired
	}

	s := &Searcher{
		repo:          repo,
		caller:        caller,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")
	return s, nil
}

// FindSimilar searches for records similar to a text query.
// Returns up to maxHits results, ranked by score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, Query{Text: query}, maxHits, nil)
}

// FindSimilarWithMonitor searches for records similar to q.
// The monitor receives callbacks at each stage of the search.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, q Query, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = noopMonitor{}
	}
	if q.empty() {
		return nil, ErrEmptyQuery
	}
	if maxHits <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	monitor.Start(q)

	result := s.caller.Call(ctx, q.request())
	if !result.OK() {
		s.logger.Error("error embedding query", "class", result.Class, "attempts", result.Attempts, "err", result.Err)
		return nil, fmt.Errorf("%w: %w", ErrEmbedQuery, result.Err)
	}
	monitor.AfterQueryEmbedding(len(result.Embedding), result.Attempts)

	limit, err := s.fetchLimit(ctx, maxHits)
	if err != nil {
		return nil, err
	}
	matches, err := s.repo.FindSimilar(ctx, result.Embedding, s.minSimilarity, limit)
	if err != nil {
		s.logger.Error("error querying for similar records", "err", err)
		return nil, err
	}
	monitor.AfterSimilaritySearch(matches)

	prefix := ""
	if s.namespace != "" {
		prefix = core.IDPrefix(s.namespace)
	}
	terms := queryTerms(q.Text)

	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		if !strings.HasPrefix(match.Record.ID, prefix) {
			continue
		}
		if terms.containedIn(match.Record.Text) {
			match.Score += verbatimBoost
			monitor.VerbatimHit(match.Record)
		}
		results = append(results, match)
	}

	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

// fetchLimit returns how many matches to pull from the store. Namespace
// filtering happens after the similarity scan, so a filtered search reads
// every candidate.
func (s *Searcher) fetchLimit(ctx context.Context, maxHits int) (int, error) {
	if s.namespace == "" {
		return maxHits * overfetch, nil
	}
	n, err := s.repo.Count(ctx, "")
	if err != nil {
		return 0, err
	}
	return max(n, maxHits), nil
}
