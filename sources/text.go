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
	"log/slog"

	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/ingestion"
)

// TextNamespace is the id namespace of plain text captions.
const TextNamespace = "text"

// SampleSentences is a small built-in caption set for smoke tests and
// warming up a fresh store.
var SampleSentences = []string{
	"The quick brown fox jumps over the lazy dog.",
	"A gentle breeze rustled the leaves of the old oak tree.",
	"The city skyline glowed under the starry night sky.",
	"Rain drummed on the rooftop of a quiet farmhouse.",
	"A bright comet streaked across the horizon at midnight.",
	"Beneath the waves, coral gardens shimmered in the afternoon light.",
	"A hummingbird hovered beside a vibrant purple flower.",
	"Fresh snow covered the mountain trail at dawn.",
	"A red vintage car drove along a coastal highway.",
	"Two children built a sandcastle on a crowded beach.",
	"Steam rose from a cup of coffee on a wooden table.",
	"A lighthouse beam cut through the evening fog.",
	"Golden wheat fields stretched toward distant hills.",
	"A street musician played violin in a busy square.",
	"An orange cat slept curled up on a windowsill.",
	"Fireworks burst in bright colors above the harbor.",
}

// TextSource turns a list of captions into text-only work items.
type TextSource struct {
	Lines  []string
	Limit  int
	Logger *slog.Logger
}

var _ ingestion.Source = (*TextSource)(nil)

// NewTextSource reads captions from path, one per line. An empty path
// uses SampleSentences.
func NewTextSource(path string) (*TextSource, error) {
	if path == "" {
		return &TextSource{Lines: SampleSentences}, nil
	}
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return &TextSource{Lines: lines}, nil
}

// Namespace returns TextNamespace.
func (s *TextSource) Namespace() string { return TextNamespace }

// Items returns one work item per non-empty line.
func (s *TextSource) Items(ctx context.Context) ([]*core.WorkItem, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	items := make([]*core.WorkItem, 0, len(s.Lines))
	for _, line := range s.Lines {
		if item, err := s.Normalize(line); err == nil {
			items = append(items, item)
		}
	}
	items = applyLimit(items, s.Limit)
	Collect(items).Log(logger.With("source", TextNamespace))
	return items, nil
}

// Normalize maps one caption to a work item keyed by the caption's hash.
func (s *TextSource) Normalize(line string) (*core.WorkItem, error) {
	if line == "" {
		return nil, ErrEmptyText
	}
	return &core.WorkItem{
		ID:   core.NamespacedID(TextNamespace, core.HashURL(line)),
		Text: line,
	}, nil
}
