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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/ingestion"
)

// GenerationNamespace is the id namespace of generation rows.
const GenerationNamespace = "gen"

// Supported platform filter values.
const (
	PlatformFal      = "fal"
	PlatformVertexAI = "vertex_ai"
)

// GenerationRow is one row of a generation export.
type GenerationRow struct {
	ID        json.RawMessage `json:"id"`
	Idx       json.RawMessage `json:"idx"`
	OutputURL string          `json:"output_url"`
	Status    string          `json:"status"`
	Error     any             `json:"error"`
	Platform  string          `json:"platform"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt string          `json:"created_at"`
}

// GenerationSource reads generation rows from every JSON file matching Pattern.
type GenerationSource struct {
	Pattern    string
	Platform   string // Empty keeps every platform
	VideosOnly bool
	Limit      int // <= 0 keeps every row
	Logger     *slog.Logger
}

var _ ingestion.Source = (*GenerationSource)(nil)

// Namespace returns GenerationNamespace.
func (s *GenerationSource) Namespace() string { return GenerationNamespace }

// Items loads, filters and normalizes every matching row.
// A file that cannot be read or parsed is logged and skipped.
func (s *GenerationSource) Items(ctx context.Context) ([]*core.WorkItem, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("source", GenerationNamespace)

	files, err := MatchFiles(s.Pattern)
	if err != nil {
		return nil, err
	}

	var rows []GenerationRow
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := ReadRows[GenerationRow](file)
		if err != nil {
			logger.Warn("skipping file", "file", file, "err", err)
			continue
		}
		logger.Info("loaded rows", "file", file, "rows", len(loaded))
		rows = append(rows, loaded...)
	}

	items := make([]*core.WorkItem, 0, len(rows))
	rejected := make(map[string]int)
	for i := range rows {
		item, err := s.Normalize(&rows[i])
		if err != nil {
			rejected[rejectReason(err)]++
			continue
		}
		items = append(items, item)
	}
	logger.Info("filtered rows", "loaded", len(rows), "kept", len(items))
	logCounts(logger, "rejected rows", rejected)

	items = applyLimit(items, s.Limit)
	Collect(items).Log(logger)
	return items, nil
}

// Normalize maps a generation row to a work item, or reports why the row
// is excluded.
func (s *GenerationSource) Normalize(row *GenerationRow) (*core.WorkItem, error) {
	if row.OutputURL == "" {
		return nil, ErrEmptyURL
	}
	if row.Status != "completed" || truthy(row.Error) {
		return nil, ErrNotCompleted
	}
	if s.Platform != "" && row.Platform != s.Platform {
		return nil, ErrPlatformMismatch
	}

	kind, ext, ok := MediaKindForURL(row.OutputURL)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMediaType, row.OutputURL)
	}
	if s.VideosOnly && kind != core.MediaKindVideo {
		return nil, ErrFilteredOut
	}

	native := rawID(row.Idx)
	if native == "" {
		native = rawID(row.ID)
	}
	if native == "" {
		return nil, core.ErrEmptyID
	}

	item := &core.WorkItem{
		ID:        core.NamespacedID(GenerationNamespace, native),
		Text:      promptText(row.Metadata),
		MaxPixels: core.DefaultMaxPixels,
		CreatedAt: parseCreatedAt(row.CreatedAt),
		Metadata: map[string]string{
			MetaPlatform:  row.Platform,
			MetaExtension: ext,
		},
	}
	if kind == core.MediaKindVideo {
		item.VideoURL = row.OutputURL
		item.FPS = core.DefaultFPS
	} else {
		item.ImageURL = row.OutputURL
	}
	return item, nil
}

// promptText extracts the prompt from a metadata blob. The blob is either a
// JSON object or a string holding one. Structured prompts prefer the
// original wording over the enhanced one.
func promptText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = json.RawMessage(encoded)
	}

	var meta struct {
		Prompt json.RawMessage `json:"prompt"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil || len(meta.Prompt) == 0 {
		return ""
	}

	var structured struct {
		Original string `json:"original"`
		Enhanced string `json:"enhanced"`
	}
	if err := json.Unmarshal(meta.Prompt, &structured); err == nil {
		if structured.Original != "" {
			return structured.Original
		}
		return structured.Enhanced
	}

	var plain string
	if err := json.Unmarshal(meta.Prompt, &plain); err == nil {
		return plain
	}
	return strings.Trim(string(meta.Prompt), `"`)
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02T15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// parseCreatedAt parses a timestamp, returning the zero time when it is
// missing or malformed.
func parseCreatedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// rawID renders a JSON string or number as an identifier.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func rejectReason(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ":"); i >= 0 {
		return msg[:i]
	}
	return msg
}
