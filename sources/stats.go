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
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/poiesic/vecingest/core"
)

// Metadata keys set by the adapters.
const (
	MetaPlatform  = "platform"
	MetaExtension = "extension"
	MetaDuration  = "duration"
	MetaScore     = "aesthetic_score"
	MetaWidth     = "width"
	MetaHeight    = "height"
)

var (
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff"}
	videoExtensions = []string{".mp4", ".webm", ".mov", ".avi", ".mkv"}
)

// MediaKindForURL classifies a URL by its file extension.
// ok is false when the extension is neither a known image nor video type.
func MediaKindForURL(url string) (kind core.MediaKind, ext string, ok bool) {
	lower := strings.ToLower(url)
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}
	ext = path.Ext(lower)
	for _, e := range imageExtensions {
		if ext == e {
			return core.MediaKindImage, ext, true
		}
	}
	for _, e := range videoExtensions {
		if ext == e {
			return core.MediaKindVideo, ext, true
		}
	}
	return core.MediaKindText, ext, false
}

// Stats summarizes a set of work items before processing.
type Stats struct {
	Total       int
	ByKind      map[string]int
	ByPlatform  map[string]int
	ByExtension map[string]int
}

// Collect builds statistics over items.
func Collect(items []*core.WorkItem) Stats {
	s := Stats{
		ByKind:      make(map[string]int),
		ByPlatform:  make(map[string]int),
		ByExtension: make(map[string]int),
	}
	for _, item := range items {
		s.Total++
		s.ByKind[item.Kind().String()]++
		if p := item.Metadata[MetaPlatform]; p != "" {
			s.ByPlatform[p]++
		}
		if e := item.Metadata[MetaExtension]; e != "" {
			s.ByExtension[e]++
		}
	}
	return s
}

// Log writes the statistics to logger, one line per dimension.
func (s Stats) Log(logger *slog.Logger) {
	logger.Info("work items", "total", s.Total)
	logCounts(logger, "by kind", s.ByKind)
	logCounts(logger, "by platform", s.ByPlatform)
	logCounts(logger, "by extension", s.ByExtension)
}

func logCounts(logger *slog.Logger, msg string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		attrs = append(attrs, k, counts[k])
	}
	logger.Info(msg, attrs...)
}
