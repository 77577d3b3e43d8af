package sources

import (
	"context"
	"testing"

	"github.com/poiesic/vecingest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextSource_Sample(t *testing.T) {
	src, err := NewTextSource("")
	require.NoError(t, err)
	assert.Equal(t, "text", src.Namespace())

	items, err := src.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, len(SampleSentences))

	for _, item := range items {
		assert.Equal(t, core.MediaKindText, item.Kind())
		assert.NoError(t, core.ValidateWorkItem(item))
	}
}

func TestTextSource_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "captions.txt", "a dog\na cat\n\na dog\n")
	src, err := NewTextSource(path)
	require.NoError(t, err)
	src.Limit = 2

	items, err := src.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "text_"+core.HashURL("a dog"), items[0].ID)
	assert.Equal(t, "a cat", items[1].Text)
}

func TestTextSource_StableIDs(t *testing.T) {
	src := &TextSource{}
	a, err := src.Normalize("same caption")
	require.NoError(t, err)
	b, err := src.Normalize("same caption")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	_, err = src.Normalize("")
	assert.ErrorIs(t, err, ErrEmptyText)
}
