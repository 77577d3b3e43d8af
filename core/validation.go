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
	"fmt"
)

// ValidateWorkItem validates a WorkItem according to domain rules.
//
// Validation rules:
//   - ID must not be empty and must be namespaced
//   - At most one of ImageURL and VideoURL is set
//   - Text or a media reference must be present
func ValidateWorkItem(item *WorkItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidWorkItem)
	}

	if err := ValidateID(item.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWorkItem, err)
	}

	if item.ImageURL != "" && item.VideoURL != "" {
		return fmt.Errorf("%w: %w", ErrInvalidWorkItem, ErrMultipleMedia)
	}

	if item.Text == "" && item.ImageURL == "" && item.VideoURL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidWorkItem, ErrEmptyPayload)
	}

	return nil
}

// ValidateRecord validates an EmbeddingRecord before it is persisted.
// A dimension of 0 disables the length check.
func ValidateRecord(record *EmbeddingRecord, dimension int) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if err := ValidateID(record.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if record.ImageURL != "" && record.VideoURL != "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrMultipleMedia)
	}

	if len(record.Embedding) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyEmbedding)
	}

	if dimension > 0 && len(record.Embedding) != dimension {
		return fmt.Errorf("%w: %w: expected %d, got %d", ErrInvalidRecord, ErrDimensionMismatch, dimension, len(record.Embedding))
	}

	return nil
}

// ValidateID checks that an identifier is non-empty and namespaced.
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if Namespace(id) == "" {
		return fmt.Errorf("%w: %q", ErrMissingNamespace, id)
	}
	return nil
}
