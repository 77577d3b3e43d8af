package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/poiesic/vecingest/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbeddingsServer(t *testing.T, vector []float32, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var body struct {
			Model string `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-embed", body.Model)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "test-embed",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vector},
			},
			"usage": map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestModel_EmbedText(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbeddingsServer(t, []float32{3, 4}, &calls)

	model, err := NewModel(ai.NewConfig(ai.WithHost(srv.URL), ai.WithModel("test-embed"), ai.WithDimension(2)))
	require.NoError(t, err)
	defer model.Close()

	vec, err := model.Embed(context.Background(), ai.Input{Text: "hello world"})
	require.NoError(t, err)
	require.Len(t, vec, 2)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 2, model.Dimension())
	assert.False(t, ai.IsSharded(model), "a hosted API is a replica on every rank")
}

func TestModel_DimensionMismatch(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbeddingsServer(t, []float32{1, 2, 3}, &calls)

	model, err := NewModel(ai.NewConfig(ai.WithHost(srv.URL), ai.WithModel("test-embed"), ai.WithDimension(2)))
	require.NoError(t, err)

	_, err = model.Embed(context.Background(), ai.Input{Text: "hello"})
	assert.Error(t, err)
}

func TestModel_RejectsMedia(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbeddingsServer(t, []float32{1}, &calls)

	model, err := NewModel(ai.NewConfig(ai.WithHost(srv.URL), ai.WithModel("test-embed")))
	require.NoError(t, err)

	_, err = model.Embed(context.Background(), ai.Input{Text: "cat", ImagePath: "/tmp/cat.png"})
	assert.ErrorIs(t, err, ai.ErrUnsupportedInput)

	_, err = model.Embed(context.Background(), ai.Input{})
	assert.ErrorIs(t, err, ai.ErrEmptyInput)
	assert.Zero(t, calls.Load())
}

func TestFactory(t *testing.T) {
	factory := Factory(ai.NewConfig(ai.WithModel("test-embed")))
	model, err := factory(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.NotNil(t, model)

	_, err = Factory(&ai.Config{})(context.Background(), 0, 1)
	assert.ErrorIs(t, err, ai.ErrInvalidConfig)
}
