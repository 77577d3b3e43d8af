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


package sources

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"

	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/ingestion"
)

// LAIONNamespace is the id namespace of LAION images.
const LAIONNamespace = "laion"

// LAION sampling defaults.
const (
	DefaultMinAestheticScore = 5.0
	DefaultOversample        = 3
)

// LAIONRow is one row of a LAION aesthetics export.
type LAIONRow struct {
	URL            string   `json:"URL"`
	Text           string   `json:"TEXT"`
	AestheticScore *float64 `json:"AESTHETIC_SCORE"`
	Width          int      `json:"WIDTH"`
	Height         int      `json:"HEIGHT"`
}

// LAIONSource randomly samples Count images from a LAION export.
//
// It draws Count*Oversample candidates to make up for dead URLs and ids
// already stored. When Known is set, stored ids are dropped from the
// sample before it is capped to Count.
type LAIONSource struct {
	Path       string
	Count      int
	MinScore   float64
	Oversample int
	Known      ingestion.IDScanner
	Rand       *rand.Rand
	Logger     *slog.Logger

	skipped int
}

var (
	_ ingestion.Source       = (*LAIONSource)(nil)
	_ ingestion.SkipReporter = (*LAIONSource)(nil)
)

// NewLAIONSource creates a LAION source sampling count images with the
// default score threshold and oversampling factor.
func NewLAIONSource(path string, count int) *LAIONSource {
	return &LAIONSource{
		Path:       path,
		Count:      count,
		MinScore:   DefaultMinAestheticScore,
		Oversample: DefaultOversample,
	}
}

// Namespace returns LAIONNamespace.
func (s *LAIONSource) Namespace() string { return LAIONNamespace }

// Skipped returns the number of sampled items the last Items call dropped
// because they were already stored.
func (s *LAIONSource) Skipped() int { return s.skipped }

// Items filters the export, draws a random oversample and caps it to Count
// new items.
func (s *LAIONSource) Items(ctx context.Context) ([]*core.WorkItem, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("source", LAIONNamespace)

	rows, err := ReadRows[LAIONRow](s.Path)
	if err != nil {
		return nil, err
	}

	items := make([]*core.WorkItem, 0, len(rows))
	for i := range rows {
		if item, err := s.Normalize(&rows[i]); err == nil {
			items = append(items, item)
		}
	}
	logger.Info("filtered images", "loaded", len(rows), "kept", len(items), "min_score", s.MinScore)

	shuffle := rand.Shuffle
	if s.Rand != nil {
		shuffle = s.Rand.Shuffle
	}
	shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })

	oversample := max(s.Oversample, 1)
	sample := applyLimit(items, s.Count*oversample)

	known := make(map[string]struct{})
	if s.Known != nil {
		ids, err := s.Known.ScanIDs(ctx, core.IDPrefix(LAIONNamespace))
		if err != nil {
			return nil, fmt.Errorf("loading stored ids: %w", err)
		}
		for _, id := range ids {
			known[id] = struct{}{}
		}
	}

	s.skipped = 0
	fresh := make([]*core.WorkItem, 0, len(sample))
	seen := make(map[string]struct{}, len(sample))
	for _, item := range sample {
		if _, ok := known[item.ID]; ok {
			s.skipped++
			continue
		}
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		fresh = append(fresh, item)
	}

	result := applyLimit(fresh, s.Count)
	logger.Info("sampled images", "sample", len(sample), "already_stored", s.skipped, "selected", len(result))
	logScores(logger, result)
	return result, nil
}

// Normalize maps a LAION row to an image work item.
func (s *LAIONSource) Normalize(row *LAIONRow) (*core.WorkItem, error) {
	if row.URL == "" {
		return nil, ErrEmptyURL
	}
	if row.Text == "" {
		return nil, ErrEmptyText
	}
	if row.AestheticScore == nil || *row.AestheticScore < s.MinScore {
		return nil, fmt.Errorf("%w: aesthetic score", ErrFilteredOut)
	}

	_, ext, _ := MediaKindForURL(row.URL)
	return &core.WorkItem{
		ID:        core.NamespacedID(LAIONNamespace, core.HashURL(row.URL)),
		Text:      row.Text,
		ImageURL:  row.URL,
		MaxPixels: core.DefaultMaxPixels,
		Metadata: map[string]string{
			MetaPlatform:  LAIONNamespace,
			MetaExtension: ext,
			MetaScore:     strconv.FormatFloat(*row.AestheticScore, 'f', 2, 64),
			MetaWidth:     strconv.Itoa(row.Width),
			MetaHeight:    strconv.Itoa(row.Height),
		},
	}, nil
}

func logScores(logger *slog.Logger, items []*core.WorkItem) {
	if len(items) == 0 {
		return
	}
	lo, hi, sum := 0.0, 0.0, 0.0
	for i, item := range items {
		score, _ := strconv.ParseFloat(item.Metadata[MetaScore], 64)
		if i == 0 || score < lo {
			lo = score
		}
		if i == 0 || score > hi {
			hi = score
		}
		sum += score
	}
	logger.Info("aesthetic scores", "min", lo, "max", hi, "mean", sum/float64(len(items)))
}
