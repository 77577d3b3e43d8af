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


package ai

import (
	"context"

	"github.com/poiesic/vecingest/core"
)

// Model generates embeddings for one input at a time.
// A Model is owned by a single worker and need not be safe for concurrent use.
type Model interface {
	// Embed returns the embedding of in. Media paths refer to local files.
	Embed(ctx context.Context, in Input) ([]float32, error)

	// Dimension returns the length of every vector the model produces.
	Dimension() int

	// Close releases resources held by the model.
	Close() error
}

// Sharded is implemented by models whose forward pass spans every rank.
// Every rank of a sharded model runs each request. Other models run only on
// the authoritative rank.
type Sharded interface {
	Sharded() bool
}

// IsSharded reports whether m declares itself sharded across ranks.
func IsSharded(m Model) bool {
	s, ok := m.(Sharded)
	return ok && s.Sharded()
}

// ModelFactory loads the model shard for one worker rank.
type ModelFactory func(ctx context.Context, rank, worldSize int) (Model, error)

// Input is one embedding request as seen by a model.
type Input struct {
	Text      string
	ImagePath string
	VideoPath string
	MaxPixels int
	FPS       float64
}

// Kind reports which modality the input carries. Video wins over image.
func (in Input) Kind() core.MediaKind {
	switch {
	case in.VideoPath != "":
		return core.MediaKindVideo
	case in.ImagePath != "":
		return core.MediaKindImage
	default:
		return core.MediaKindText
	}
}

// Prompt returns the instruction text for the input: the caller's text if
// present, otherwise the default prompt for the modality.
func (in Input) Prompt() string {
	if in.Text != "" {
		return in.Text
	}
	switch in.Kind() {
	case core.MediaKindVideo:
		return VideoPrompt
	case core.MediaKindImage:
		return ImagePrompt
	default:
		return ""
	}
}

// Validate checks that the input carries something to embed.
func (in Input) Validate() error {
	if in.Text == "" && in.ImagePath == "" && in.VideoPath == "" {
		return ErrEmptyInput
	}
	return nil
}
