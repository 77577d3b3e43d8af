package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/poiesic/vecingest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProber_Check(t *testing.T) {
	var throttle atomic.Bool
	var heads atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		heads.Add(1)
		assert.Equal(t, http.MethodHead, r.Method)
		if throttle.Load() {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
	})
	mux.HandleFunc("/blob", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
	})
	mux.HandleFunc("/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	})
	mux.HandleFunc("/moved.mp4", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/clip.mp4", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	prober := NewProber(srv.Client(), 0, nil)
	ctx := context.Background()

	assert.NoError(t, prober.Check(ctx, &core.WorkItem{ID: "pexels_1", VideoURL: srv.URL + "/clip.mp4"}))
	assert.NoError(t, prober.Check(ctx, &core.WorkItem{ID: "pexels_2", VideoURL: srv.URL + "/blob"}))
	assert.NoError(t, prober.Check(ctx, &core.WorkItem{ID: "pexels_3", VideoURL: srv.URL + "/moved.mp4"}))
	assert.ErrorIs(t, prober.Check(ctx, &core.WorkItem{ID: "pexels_4", VideoURL: srv.URL + "/page.html"}), ErrNotMedia)
	assert.ErrorIs(t, prober.Check(ctx, &core.WorkItem{ID: "pexels_5", VideoURL: srv.URL + "/nothing.mp4"}), ErrDownloadFailed)
	assert.ErrorIs(t, prober.Check(ctx, &core.WorkItem{ID: "laion_1", ImageURL: srv.URL + "/clip.mp4"}), ErrNotMedia)

	before := heads.Load()
	require.NoError(t, prober.Check(ctx, &core.WorkItem{ID: "text_1", Text: "no media"}))
	assert.Equal(t, before, heads.Load(), "text items are not probed")

	throttle.Store(true)
	item := &core.WorkItem{ID: "pexels_6", VideoURL: srv.URL + "/clip.mp4"}
	assert.ErrorIs(t, prober.Check(ctx, item), ErrRateLimited)
	assert.ErrorIs(t, prober.Check(ctx, item), ErrRateLimited)
	assert.Equal(t, int64(2), prober.ConsecutiveRateLimits())

	throttle.Store(false)
	require.NoError(t, prober.Check(ctx, item))
	assert.Zero(t, prober.ConsecutiveRateLimits())
}
