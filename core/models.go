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


package core

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Default processing hints sent with every media request.
const (
	DefaultMaxPixels = 360 * 420
	DefaultFPS       = 1.0
)

// HashURL derives a stable 16 character hex identifier from a URL or any
// other canonical string using BLAKE2b.
func HashURL(url string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 16 hex chars
	h.Write([]byte(url))
	return hex.EncodeToString(h.Sum(nil))
}

// NamespacedID joins a source namespace and a native identifier as
// "<namespace>_<native>".
func NamespacedID(namespace, native string) string {
	return namespace + "_" + native
}

// IDPrefix returns the prefix shared by every identifier in a namespace.
func IDPrefix(namespace string) string {
	return namespace + "_"
}

// Namespace returns the namespace portion of a namespaced identifier, or ""
// if the identifier carries none.
func Namespace(id string) string {
	ns, _, ok := strings.Cut(id, "_")
	if !ok {
		return ""
	}
	return ns
}

// MediaKind identifies the payload carried by a work item.
type MediaKind int

const (
	// MediaKindText is a text-only item.
	MediaKindText MediaKind = iota + 1
	// MediaKindImage is an image referenced by URL.
	MediaKindImage
	// MediaKindVideo is a video referenced by URL.
	MediaKindVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaKindText:
		return "text"
	case MediaKindImage:
		return "image"
	case MediaKindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// WorkItem is one unit of media slated for embedding.
// Work items are immutable once a source has produced them.
type WorkItem struct {
	ID        string
	Text      string
	ImageURL  string
	VideoURL  string
	MaxPixels int
	FPS       float64
	CreatedAt time.Time         // Original creation time, zero if the source has none
	Metadata  map[string]string // Source-specific attributes used for reporting (platform, extension)
}

// Kind reports which payload the item carries.
func (w *WorkItem) Kind() MediaKind {
	switch {
	case w.VideoURL != "":
		return MediaKindVideo
	case w.ImageURL != "":
		return MediaKindImage
	default:
		return MediaKindText
	}
}

// EmbeddingRecord is the persisted result of embedding one work item.
// Records are append-only.
type EmbeddingRecord struct {
	ID        string
	Embedding []float32
	Text      string
	ImageURL  string
	VideoURL  string
	CreatedAt float64 // Epoch seconds
}

// NewEmbeddingRecord builds the record for a successfully embedded item.
// CreatedAt falls back to now when the item carries no creation time.
func NewEmbeddingRecord(item *WorkItem, embedding []float32) *EmbeddingRecord {
	created := item.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return &EmbeddingRecord{
		ID:        item.ID,
		Embedding: embedding,
		Text:      item.Text,
		ImageURL:  item.ImageURL,
		VideoURL:  item.VideoURL,
		CreatedAt: EpochSeconds(created),
	}
}

// EpochSeconds converts a time to fractional seconds since the Unix epoch.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// ErrorDescriptor describes a single item failure within a run.
type ErrorDescriptor struct {
	ID       string
	Message  string
	Attempts int
}

// RunResult aggregates the outcome of one ingestion run.
type RunResult struct {
	Success  int
	Failed   int
	Skipped  int
	Errors   []ErrorDescriptor
	Duration time.Duration
}

// Total returns the number of items that reached a terminal state.
func (r RunResult) Total() int {
	return r.Success + r.Failed + r.Skipped
}

// Rate returns successful items per second over the run duration.
func (r RunResult) Rate() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Success) / r.Duration.Seconds()
}

// SearchResult is a stored record matched by similarity search.
type SearchResult struct {
	Record *EmbeddingRecord
	Score  float32
}
