package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, dimension int) storage.EmbeddingRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository(dimension)
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestAddEmbeddings_AndGet(t *testing.T) {
	repo := newTestRepository(t, 2)
	ctx := context.Background()

	record := &core.EmbeddingRecord{
		ID:        "laion_00aa11bb22cc33dd",
		Embedding: []float32{0.6, 0.8},
		Text:      "a red bicycle",
		ImageURL:  "https://example.com/bike.jpg",
		CreatedAt: 1700000000.5,
	}
	require.NoError(t, repo.AddEmbeddings(ctx, record))

	got, err := repo.GetEmbedding(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestGetEmbedding_NotFound(t *testing.T) {
	repo := newTestRepository(t, 2)

	_, err := repo.GetEmbedding(context.Background(), "laion_missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetEmbeddings_SkipsMissing(t *testing.T) {
	repo := newTestRepository(t, 1)
	ctx := context.Background()

	require.NoError(t, repo.AddEmbeddings(ctx,
		&core.EmbeddingRecord{ID: "text_a", Embedding: []float32{1}},
		&core.EmbeddingRecord{ID: "text_b", Embedding: []float32{1}},
	))

	records, err := repo.GetEmbeddings(ctx, "text_a", "text_missing", "text_b")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestAddEmbeddings_Empty(t *testing.T) {
	repo := newTestRepository(t, 2)
	assert.NoError(t, repo.AddEmbeddings(context.Background()))
}

func TestAddEmbeddings_IsAtomic(t *testing.T) {
	repo := newTestRepository(t, 2)
	ctx := context.Background()

	err := repo.AddEmbeddings(ctx,
		&core.EmbeddingRecord{ID: "text_ok", Embedding: []float32{1, 0}},
		&core.EmbeddingRecord{ID: "text_bad", Embedding: []float32{1, 0, 0}},
	)
	require.ErrorIs(t, err, core.ErrDimensionMismatch)

	count, err := repo.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, count, "no record of a rejected batch may be written")
}

func TestScanIDs_ByPrefix(t *testing.T) {
	repo := newTestRepository(t, 1)
	ctx := context.Background()

	var records []*core.EmbeddingRecord
	for i := range 3 {
		records = append(records, &core.EmbeddingRecord{ID: fmt.Sprintf("pexels_%d", i), Embedding: []float32{1}})
	}
	records = append(records, &core.EmbeddingRecord{ID: "laion_abc", Embedding: []float32{1}})
	require.NoError(t, repo.AddEmbeddings(ctx, records...))

	ids, err := repo.ScanIDs(ctx, "pexels_")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pexels_0", "pexels_1", "pexels_2"}, ids)

	ids, err = repo.ScanIDs(ctx, "laion_")
	require.NoError(t, err)
	assert.Equal(t, []string{"laion_abc"}, ids)

	all, err := repo.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 4, all)

	none, err := repo.Count(ctx, "gen_")
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestScanIDs_ContextCanceled(t *testing.T) {
	repo := newTestRepository(t, 1)
	require.NoError(t, repo.AddEmbeddings(context.Background(),
		&core.EmbeddingRecord{ID: "text_a", Embedding: []float32{1}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.ScanIDs(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTable_CreatedAndReopened(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	repo, err := NewEmbeddingRepository(backend, 4)
	require.NoError(t, err)
	info, err := repo.Table(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.EmbeddingsTable, info.Name)
	assert.Equal(t, 4, info.Dimension)
	assert.NotZero(t, info.CreatedAt)

	reopened, err := NewEmbeddingRepository(backend, 0)
	require.NoError(t, err)
	again, err := reopened.Table(ctx)
	require.NoError(t, err)
	assert.Equal(t, info, again)

	_, err = NewEmbeddingRepository(backend, 8)
	assert.ErrorIs(t, err, storage.ErrSchemaMismatch)
}

func TestTable_AdoptsFirstDimension(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewEmbeddingRepository(backend, 0)
	require.NoError(t, err)

	repo, err := NewEmbeddingRepository(backend, 16)
	require.NoError(t, err)
	info, err := repo.Table(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, info.Dimension)
}
