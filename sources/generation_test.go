package sources

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/vecingest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generationExport = `[
  {"idx": 1, "output_url": "https://cdn.example.com/1.png", "status": "completed", "platform": "fal",
   "metadata": "{\"prompt\": {\"original\": \"a red fox\", \"enhanced\": \"a red fox in snow\"}}",
   "created_at": "2024-05-01 12:00:00+00"},
  {"idx": 2, "output_url": "https://cdn.example.com/2.mp4", "status": "completed", "platform": "vertex_ai",
   "metadata": {"prompt": "ocean waves"}},
  {"idx": 3, "output_url": "https://cdn.example.com/3.png", "status": "failed", "platform": "fal"},
  {"idx": 4, "output_url": "https://cdn.example.com/4.png", "status": "completed", "error": "nsfw", "platform": "fal"},
  {"idx": 5, "output_url": "", "status": "completed", "platform": "fal"},
  {"idx": 6, "output_url": "https://cdn.example.com/6.pdf", "status": "completed", "platform": "fal"},
  {"id": "abc", "output_url": "https://cdn.example.com/7.webm", "status": "completed", "platform": "fal",
   "metadata": "{\"prompt\": {\"enhanced\": \"city lights\"}}"}
]`

func TestGenerationSource_Items(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export_a.json", generationExport)
	writeFile(t, dir, "export_b.json", `{not an array`)

	src := &GenerationSource{Pattern: filepath.Join(dir, "export_*.json")}
	assert.Equal(t, "gen", src.Namespace())

	items, err := src.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "gen_1", items[0].ID)
	assert.Equal(t, "a red fox", items[0].Text)
	assert.Equal(t, "https://cdn.example.com/1.png", items[0].ImageURL)
	assert.Empty(t, items[0].VideoURL)
	assert.Equal(t, core.DefaultMaxPixels, items[0].MaxPixels)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), items[0].CreatedAt.UTC())

	assert.Equal(t, "gen_2", items[1].ID)
	assert.Equal(t, "ocean waves", items[1].Text)
	assert.Equal(t, "https://cdn.example.com/2.mp4", items[1].VideoURL)
	assert.Equal(t, core.DefaultFPS, items[1].FPS)
	assert.True(t, items[1].CreatedAt.IsZero())

	assert.Equal(t, "gen_abc", items[2].ID)
	assert.Equal(t, "city lights", items[2].Text)
}

func TestGenerationSource_Filters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "export.json", generationExport)
	pattern := filepath.Join(dir, "*.json")

	t.Run("platform", func(t *testing.T) {
		items, err := (&GenerationSource{Pattern: pattern, Platform: PlatformVertexAI}).Items(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "gen_2", items[0].ID)
	})

	t.Run("videos only", func(t *testing.T) {
		items, err := (&GenerationSource{Pattern: pattern, VideosOnly: true}).Items(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 2)
		for _, item := range items {
			assert.Equal(t, core.MediaKindVideo, item.Kind())
		}
	})

	t.Run("limit", func(t *testing.T) {
		items, err := (&GenerationSource{Pattern: pattern, Limit: 2}).Items(context.Background())
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("no files", func(t *testing.T) {
		_, err := (&GenerationSource{Pattern: filepath.Join(dir, "*.csv")}).Items(context.Background())
		assert.ErrorIs(t, err, ErrNoFiles)
	})
}

func TestGenerationSource_Normalize(t *testing.T) {
	src := &GenerationSource{}

	tests := []struct {
		name    string
		row     GenerationRow
		wantErr error
	}{
		{"missing url", GenerationRow{Idx: json.RawMessage("1"), Status: "completed"}, ErrEmptyURL},
		{"pending", GenerationRow{Idx: json.RawMessage("1"), OutputURL: "a.png", Status: "pending"}, ErrNotCompleted},
		{"errored", GenerationRow{Idx: json.RawMessage("1"), OutputURL: "a.png", Status: "completed", Error: map[string]any{"code": 1}}, ErrNotCompleted},
		{"unknown type", GenerationRow{Idx: json.RawMessage("1"), OutputURL: "a.txt", Status: "completed"}, ErrUnknownMediaType},
		{"no id", GenerationRow{OutputURL: "a.png", Status: "completed"}, core.ErrEmptyID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := src.Normalize(&tt.row)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("empty error string is not an error", func(t *testing.T) {
		item, err := src.Normalize(&GenerationRow{Idx: json.RawMessage(`"9"`), OutputURL: "a.gif", Status: "completed", Error: ""})
		require.NoError(t, err)
		assert.Equal(t, "gen_9", item.ID)
		assert.Equal(t, ".gif", item.Metadata[MetaExtension])
	})
}

func TestPromptText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", ``, ""},
		{"null", `null`, ""},
		{"object original", `{"prompt":{"original":"o","enhanced":"e"}}`, "o"},
		{"object enhanced fallback", `{"prompt":{"enhanced":"e"}}`, "e"},
		{"string prompt", `{"prompt":"plain"}`, "plain"},
		{"encoded object", `"{\"prompt\":\"inner\"}"`, "inner"},
		{"no prompt", `{"seed":42}`, ""},
		{"garbage", `"not json"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, promptText(json.RawMessage(tt.raw)))
		})
	}
}
