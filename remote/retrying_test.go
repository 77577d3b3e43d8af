package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingClient returns the scripted errors in order, then succeeds.
type countingClient struct {
	calls  atomic.Int32
	errs   []error
	vector []float32
}

func (c *countingClient) Embed(ctx context.Context, req *Request) (*Response, error) {
	n := int(c.calls.Add(1))
	if n <= len(c.errs) {
		return nil, c.errs[n-1]
	}
	vector := c.vector
	if vector == nil {
		vector = []float32{1, 0}
	}
	return &Response{Embedding: vector, Dimension: len(vector)}, nil
}

func newTestRetryingClient(t *testing.T, client Client, opts ...RetryOption) *RetryingClient {
	t.Helper()
	opts = append([]RetryOption{WithRetryDelay(time.Millisecond)}, opts...)
	rc, err := NewRetryingClient(client, opts...)
	require.NoError(t, err)
	return rc
}

func TestRetryingClient_Success(t *testing.T) {
	client := &countingClient{}
	rc := newTestRetryingClient(t, client)

	result := rc.Call(context.Background(), &Request{Text: "x"})
	require.True(t, result.OK())
	assert.Equal(t, []float32{1, 0}, result.Embedding)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, ClassNone, result.Class)
}

func TestRetryingClient_AlwaysTransient(t *testing.T) {
	transient := &StatusError{Code: http.StatusServiceUnavailable, Body: "busy"}
	client := &countingClient{errs: []error{transient, transient, transient, transient, transient}}
	rc := newTestRetryingClient(t, client, WithMaxRetries(3))

	result := rc.Call(context.Background(), &Request{Text: "x"})
	assert.False(t, result.OK())
	assert.Equal(t, int32(3), client.calls.Load(), "called exactly max_retries times")
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, ClassTransient, result.Class)
	assert.ErrorAs(t, result.Err, new(*StatusError))
}

func TestRetryingClient_PoisonedCalledOnce(t *testing.T) {
	poisoned := &StatusError{Code: 500, Body: "<html>429 Too Many Requests</html>"}
	client := &countingClient{errs: []error{poisoned, poisoned, poisoned}}
	rc := newTestRetryingClient(t, client, WithMaxRetries(3))

	result := rc.Call(context.Background(), &Request{VideoURL: "v"})
	assert.False(t, result.OK())
	assert.Equal(t, int32(1), client.calls.Load())
	assert.Equal(t, ClassPoisoned, result.Class)
}

func TestRetryingClient_RateLimitedTwiceThenSucceeds(t *testing.T) {
	limited := &StatusError{Code: http.StatusTooManyRequests}
	client := &countingClient{errs: []error{limited, limited}}
	rc := newTestRetryingClient(t, client, WithMaxRetries(3))

	result := rc.Call(context.Background(), &Request{Text: "x"})
	require.True(t, result.OK())
	assert.Equal(t, 3, result.Attempts)
}

func TestRetryingClient_ClientErrorRetried(t *testing.T) {
	client := &countingClient{errs: []error{&StatusError{Code: 400}}}
	rc := newTestRetryingClient(t, client, WithMaxRetries(2))

	result := rc.Call(context.Background(), &Request{Text: "x"})
	require.True(t, result.OK())
	assert.Equal(t, 2, result.Attempts)
}

func TestRetryingClient_DimensionMismatch(t *testing.T) {
	client := &countingClient{vector: []float32{1, 2, 3}}
	rc := newTestRetryingClient(t, client, WithDimension(4))

	result := rc.Call(context.Background(), &Request{Text: "x"})
	assert.False(t, result.OK())
	assert.ErrorIs(t, result.Err, ErrDimensionMismatch)
	assert.Equal(t, ClassPoisoned, result.Class)
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestRetryingClient_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := ClientFunc(func(ctx context.Context, req *Request) (*Response, error) {
		cancel()
		return nil, errors.New("interrupted")
	})
	rc := newTestRetryingClient(t, client, WithMaxRetries(5), WithRetryDelay(time.Second))

	result := rc.Call(ctx, &Request{Text: "x"})
	assert.False(t, result.OK())
	assert.Equal(t, ClassCanceled, result.Class)
	assert.Equal(t, 1, result.Attempts)
}

func TestRetryingClient_OverHTTP(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"embedding":[0.5,0.5],"dimension":2}`))
	}))
	defer server.Close()

	httpClient, err := NewHTTPClient(server.URL, "k")
	require.NoError(t, err)
	rc := newTestRetryingClient(t, httpClient, WithDimension(2))

	result := rc.Call(context.Background(), &Request{Text: "x"})
	require.True(t, result.OK())
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, []float32{0.5, 0.5}, result.Embedding)
}

func TestNewRetryingClient_Validation(t *testing.T) {
	_, err := NewRetryingClient(nil)
	assert.ErrorIs(t, err, ErrClientRequired)

	_, err = NewRetryingClient(&countingClient{}, WithMaxRetries(0))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	rc, err := NewRetryingClient(&countingClient{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxRetries, rc.MaxRetries())
}
