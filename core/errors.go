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

import "errors"

// Domain validation errors
var (
	// ErrInvalidWorkItem indicates a WorkItem failed validation.
	ErrInvalidWorkItem = errors.New("invalid work item")

	// ErrInvalidRecord indicates an EmbeddingRecord failed validation.
	ErrInvalidRecord = errors.New("invalid embedding record")

	// ErrEmptyID indicates the ID field is empty.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrMissingNamespace indicates the ID carries no "<namespace>_" prefix.
	ErrMissingNamespace = errors.New("id must be namespaced")

	// ErrEmptyPayload indicates an item has neither text nor media.
	ErrEmptyPayload = errors.New("item has no text or media")

	// ErrMultipleMedia indicates both image and video references are set.
	ErrMultipleMedia = errors.New("at most one of image or video may be set")

	// ErrEmptyEmbedding indicates a record has no embedding vector.
	ErrEmptyEmbedding = errors.New("embedding cannot be empty")

	// ErrDimensionMismatch indicates an embedding of the wrong length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
