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
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/ingestion"
)

// PexelsNamespace is the id namespace of Pexels videos.
const PexelsNamespace = "pexels"

// DefaultDurationLimit is the longest clip, in seconds, kept by default.
const DefaultDurationLimit = 10.0

// PexelsRow is one row of a Pexels video dataset export.
type PexelsRow struct {
	Video     string   `json:"video"`
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Duration  *float64 `json:"duration"`
}

// PexelsSource reads Pexels rows from a JSON or JSONL export.
type PexelsSource struct {
	Path          string
	DurationLimit float64 // Seconds; rows without a duration are dropped
	Shuffle       bool
	Limit         int
	Rand          *rand.Rand // Nil uses the global source
	Logger        *slog.Logger
}

var _ ingestion.Source = (*PexelsSource)(nil)

// NewPexelsSource creates a Pexels source with the default duration limit
// and shuffling enabled.
func NewPexelsSource(path string) *PexelsSource {
	return &PexelsSource{
		Path:          path,
		DurationLimit: DefaultDurationLimit,
		Shuffle:       true,
	}
}

// Namespace returns PexelsNamespace.
func (s *PexelsSource) Namespace() string { return PexelsNamespace }

// Items loads the export, filters by duration, optionally shuffles and
// applies the limit.
func (s *PexelsSource) Items(ctx context.Context) ([]*core.WorkItem, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("source", PexelsNamespace)

	rows, err := ReadRows[PexelsRow](s.Path)
	if err != nil {
		return nil, err
	}

	items := make([]*core.WorkItem, 0, len(rows))
	var noURL, tooLong int
	for i := range rows {
		item, err := s.Normalize(&rows[i], i)
		switch {
		case err == nil:
			items = append(items, item)
		case errors.Is(err, ErrEmptyURL):
			noURL++
		default:
			tooLong++
		}
	}
	logger.Info("filtered videos",
		"loaded", len(rows),
		"kept", len(items),
		"duration_limit", s.DurationLimit,
		"no_url", noURL,
		"over_limit", tooLong,
	)

	if s.Shuffle {
		shuffle := rand.Shuffle
		if s.Rand != nil {
			shuffle = s.Rand.Shuffle
		}
		shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	}

	items = applyLimit(items, s.Limit)
	Collect(items).Log(logger)
	return items, nil
}

// Normalize maps a Pexels row to a video work item. index is the row's
// position in the export, used as the native id when the URL has no path.
func (s *PexelsSource) Normalize(row *PexelsRow, index int) (*core.WorkItem, error) {
	if row.Video == "" {
		return nil, ErrEmptyURL
	}
	if row.Duration == nil || *row.Duration > s.DurationLimit {
		return nil, fmt.Errorf("%w: duration", ErrFilteredOut)
	}

	native := fmt.Sprintf("video_%d", index)
	if i := strings.LastIndex(row.Video, "/"); i >= 0 && i < len(row.Video)-1 {
		native = row.Video[i+1:]
	}

	_, ext, _ := MediaKindForURL(row.Video)
	return &core.WorkItem{
		ID:        core.NamespacedID(PexelsNamespace, native),
		Text:      row.Title,
		VideoURL:  row.Video,
		MaxPixels: core.DefaultMaxPixels,
		FPS:       core.DefaultFPS,
		Metadata: map[string]string{
			MetaPlatform:  PexelsNamespace,
			MetaExtension: ext,
			MetaDuration:  strconv.FormatFloat(*row.Duration, 'f', -1, 64),
		},
	}, nil
}
