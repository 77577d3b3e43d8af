package sources

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/poiesic/vecingest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pexelsExport = `{"video": "https://videos.pexels.com/video-files/1001", "title": "waves on rocks", "thumbnail": "https://images.pexels.com/1001.jpg", "duration": 8}
{"video": "https://videos.pexels.com/video-files/1002", "title": "long timelapse", "duration": 42}
{"video": "", "title": "no url", "duration": 3}
{"video": "https://videos.pexels.com/video-files/1004", "title": "no duration"}
{"video": "https://videos.pexels.com/video-files/1005.mp4", "title": "city at night", "duration": 10}
`

func TestPexelsSource_Items(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pexels.jsonl", pexelsExport)

	src := NewPexelsSource(path)
	src.Shuffle = false
	assert.Equal(t, DefaultDurationLimit, src.DurationLimit)
	assert.Equal(t, "pexels", src.Namespace())

	items, err := src.Items(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "pexels_1001", items[0].ID)
	assert.Equal(t, "waves on rocks", items[0].Text)
	assert.Equal(t, "https://videos.pexels.com/video-files/1001", items[0].VideoURL)
	assert.Empty(t, items[0].ImageURL, "thumbnails are not persisted")
	assert.Equal(t, core.DefaultFPS, items[0].FPS)
	assert.Equal(t, "8", items[0].Metadata[MetaDuration])

	assert.Equal(t, "pexels_1005.mp4", items[1].ID)
}

func TestPexelsSource_DurationLimitAndLimit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pexels.jsonl", pexelsExport)

	src := NewPexelsSource(path)
	src.Shuffle = false
	src.DurationLimit = 60
	items, err := src.Items(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)

	src.Limit = 1
	items, err = src.Items(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestPexelsSource_ShuffleIsSeeded(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pexels.jsonl", pexelsExport)

	ids := func(seed uint64) []string {
		src := NewPexelsSource(path)
		src.DurationLimit = 60
		src.Rand = rand.New(rand.NewPCG(seed, seed))
		items, err := src.Items(context.Background())
		require.NoError(t, err)
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.ID
		}
		return out
	}

	first := ids(7)
	assert.Equal(t, first, ids(7))
	assert.ElementsMatch(t, []string{"pexels_1001", "pexels_1002", "pexels_1005.mp4"}, first)
}

func TestPexelsSource_NormalizeFallbackID(t *testing.T) {
	d := 5.0
	src := NewPexelsSource("")

	item, err := src.Normalize(&PexelsRow{Video: "clip", Duration: &d}, 12)
	require.NoError(t, err)
	assert.Equal(t, "pexels_video_12", item.ID)

	_, err = src.Normalize(&PexelsRow{Video: "https://x/1"}, 0)
	assert.ErrorIs(t, err, ErrFilteredOut)
}
