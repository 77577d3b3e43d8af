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
	"log/slog"

	"github.com/poiesic/vecingest/core"
)

// SearchMonitor observes the stages of a search.
type SearchMonitor interface {
	Start(q Query)
	AfterQueryEmbedding(dimension, attempts int)
	AfterSimilaritySearch(matches []*core.SearchResult)
	VerbatimHit(record *core.EmbeddingRecord)
	Finish(results []*core.SearchResult)
}

type noopMonitor struct{}

var _ SearchMonitor = noopMonitor{}

func (noopMonitor) Start(Query)                                {}
func (noopMonitor) AfterQueryEmbedding(int, int)               {}
func (noopMonitor) AfterSimilaritySearch([]*core.SearchResult) {}
func (noopMonitor) VerbatimHit(*core.EmbeddingRecord)          {}
func (noopMonitor) Finish([]*core.SearchResult)                {}

// LogMonitor reports every search stage at debug level.
type LogMonitor struct {
	Logger *slog.Logger
}

var _ SearchMonitor = (*LogMonitor)(nil)

func (m *LogMonitor) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m *LogMonitor) Start(q Query) {
	m.logger().Debug("search started", "text", q.Text, "image_url", q.ImageURL, "video_url", q.VideoURL)
}

func (m *LogMonitor) AfterQueryEmbedding(dimension, attempts int) {
	m.logger().Debug("query embedded", "dimension", dimension, "attempts", attempts)
}

func (m *LogMonitor) AfterSimilaritySearch(matches []*core.SearchResult) {
	m.logger().Debug("similarity scan complete", "matches", len(matches))
}

func (m *LogMonitor) VerbatimHit(record *core.EmbeddingRecord) {
	m.logger().Debug("verbatim match", "id", record.ID)
}

func (m *LogMonitor) Finish(results []*core.SearchResult) {
	m.logger().Debug("search finished", "results", len(results))
}
