package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateWorkItem(t *testing.T) {
	tests := []struct {
		name    string
		item    *WorkItem
		wantErr error
	}{
		{
			name: "text item",
			item: &WorkItem{ID: "text_1", Text: "hello"},
		},
		{
			name: "image item",
			item: &WorkItem{ID: "laion_abc", ImageURL: "https://example.com/a.jpg"},
		},
		{
			name:    "nil item",
			item:    nil,
			wantErr: ErrInvalidWorkItem,
		},
		{
			name:    "empty id",
			item:    &WorkItem{Text: "hello"},
			wantErr: ErrEmptyID,
		},
		{
			name:    "id without namespace",
			item:    &WorkItem{ID: "abc", Text: "hello"},
			wantErr: ErrMissingNamespace,
		},
		{
			name:    "both media set",
			item:    &WorkItem{ID: "gen_1", ImageURL: "a", VideoURL: "b"},
			wantErr: ErrMultipleMedia,
		},
		{
			name:    "no payload",
			item:    &WorkItem{ID: "gen_1"},
			wantErr: ErrEmptyPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWorkItem(tt.item)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidWorkItem)
		})
	}
}

func TestValidateRecord(t *testing.T) {
	valid := &EmbeddingRecord{ID: "pexels_42", Embedding: []float32{1, 2, 3}, VideoURL: "v"}
	assert.NoError(t, ValidateRecord(valid, 3))
	assert.NoError(t, ValidateRecord(valid, 0))

	err := ValidateRecord(valid, 4)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	assert.ErrorIs(t, ValidateRecord(&EmbeddingRecord{ID: "pexels_42"}, 0), ErrEmptyEmbedding)
	assert.ErrorIs(t, ValidateRecord(nil, 0), ErrInvalidRecord)
	assert.ErrorIs(t, ValidateRecord(&EmbeddingRecord{ID: "x", Embedding: []float32{1}}, 0), ErrMissingNamespace)
	assert.ErrorIs(t, ValidateRecord(&EmbeddingRecord{ID: "gen_1", Embedding: []float32{1}, ImageURL: "a", VideoURL: "b"}, 0), ErrMultipleMedia)
}
