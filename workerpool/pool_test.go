package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/vecingest/ai"
	"github.com/poiesic/vecingest/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDim = 8

// recordingFactory creates mock models and keeps them for inspection.
type recordingFactory struct {
	mu       sync.Mutex
	models   map[int]*mock.Model
	failRank int
	setup    func(m *mock.Model)
}

func newRecordingFactory() *recordingFactory {
	return &recordingFactory{models: make(map[int]*mock.Model), failRank: -1}
}

func (f *recordingFactory) create(ctx context.Context, rank, worldSize int) (ai.Model, error) {
	if rank == f.failRank {
		return nil, errors.New("out of GPU memory")
	}
	m := mock.NewModel(testDim)
	m.Rank = rank
	if f.setup != nil {
		f.setup(m)
	}
	f.mu.Lock()
	f.models[rank] = m
	f.mu.Unlock()
	return m, nil
}

func (f *recordingFactory) model(rank int) *mock.Model {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.models[rank]
}

func startPool(t *testing.T, factory ai.ModelFactory, opts ...Option) *Pool {
	t.Helper()
	opts = append([]Option{WithReadyDelay(0)}, opts...)
	pool, err := New(factory, opts...)
	require.NoError(t, err)
	require.NoError(t, pool.Start(context.Background()))
	t.Cleanup(pool.Close)
	return pool
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrFactoryRequired)

	_, err = New(mock.Factory(4), WithWorldSize(0))
	assert.ErrorIs(t, err, ErrInvalidWorldSize)

	pool, err := New(mock.Factory(4))
	require.NoError(t, err)
	assert.Equal(t, 1, pool.WorldSize())
	assert.Equal(t, DefaultReadyDelay, pool.readyDelay)
}

func TestPool_InvokeSingleWorker(t *testing.T) {
	pool := startPool(t, mock.Factory(testDim))

	vec, err := pool.Invoke(context.Background(), ai.Input{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, mock.Vector("hello||", testDim), vec)
}

func TestPool_BroadcastReachesEveryRank(t *testing.T) {
	factory := newRecordingFactory()
	pool := startPool(t, factory.create, WithWorldSize(3))

	replies, err := pool.Broadcast(context.Background(), ai.Input{Text: "lockstep"})
	require.NoError(t, err)
	require.Len(t, replies, 3)
	for i, r := range replies {
		assert.Equal(t, i, r.Rank, "replies ordered by rank")
		assert.Nil(t, r.Err)
	}
	assert.Len(t, replies[0].Embedding, testDim)
	assert.Empty(t, replies[1].Embedding)
	assert.Empty(t, replies[2].Embedding)

	assert.Equal(t, 1, factory.model(0).CallCount())
	for rank := 1; rank < 3; rank++ {
		assert.Zero(t, factory.model(rank).CallCount(), "replica rank %d must not embed", rank)
	}
}

func TestPool_ReplicaModelEmbedsOnceRegardlessOfWorldSize(t *testing.T) {
	factory := newRecordingFactory()
	pool := startPool(t, factory.create, WithWorldSize(4))

	for i := range 5 {
		_, err := pool.Invoke(context.Background(), ai.Input{Text: fmt.Sprint(i)})
		require.NoError(t, err)
	}

	total := 0
	for rank := range 4 {
		total += factory.model(rank).CallCount()
	}
	assert.Equal(t, 5, total)
	assert.Equal(t, 5, factory.model(0).CallCount())
}

func TestPool_ShardedModelRunsOnEveryRank(t *testing.T) {
	factory := newRecordingFactory()
	factory.setup = func(m *mock.Model) { m.Shard = true }
	pool := startPool(t, factory.create, WithWorldSize(3))

	_, err := pool.Invoke(context.Background(), ai.Input{Text: "lockstep"})
	require.NoError(t, err)
	for rank := range 3 {
		assert.Equal(t, 1, factory.model(rank).CallCount(), "rank %d", rank)
	}
}

func TestPool_OnlyRankZeroIsAuthoritative(t *testing.T) {
	factory := newRecordingFactory()
	factory.setup = func(m *mock.Model) {
		m.Shard = true
		if m.Rank != 0 {
			m.EmbedFunc = func(ctx context.Context, in ai.Input) ([]float32, error) {
				return nil, errors.New("shard idle")
			}
		}
	}
	pool := startPool(t, factory.create, WithWorldSize(2))

	vec, err := pool.Invoke(context.Background(), ai.Input{Text: "x"})
	require.NoError(t, err)
	assert.Len(t, vec, testDim)
}

func TestPool_WorkerErrorKeepsWorkerAlive(t *testing.T) {
	var calls int
	factory := newRecordingFactory()
	factory.setup = func(m *mock.Model) {
		m.EmbedFunc = func(ctx context.Context, in ai.Input) ([]float32, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("corrupt frame")
			}
			return []float32{1, 0}, nil
		}
	}
	pool := startPool(t, factory.create)

	_, err := pool.Invoke(context.Background(), ai.Input{VideoPath: "/tmp/bad.mp4"})
	var werr *WorkerError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, 0, werr.Rank)
	assert.Equal(t, "corrupt frame", werr.Message)
	assert.NotEmpty(t, werr.Trace)

	vec, err := pool.Invoke(context.Background(), ai.Input{Text: "next"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
}

func TestPool_PanicBecomesWorkerError(t *testing.T) {
	factory := newRecordingFactory()
	factory.setup = func(m *mock.Model) {
		m.EmbedFunc = func(ctx context.Context, in ai.Input) ([]float32, error) {
			if in.Text == "boom" {
				panic("index out of range")
			}
			return []float32{1}, nil
		}
	}
	pool := startPool(t, factory.create)

	_, err := pool.Invoke(context.Background(), ai.Input{Text: "boom"})
	var werr *WorkerError
	require.ErrorAs(t, err, &werr)
	assert.Contains(t, werr.Message, "index out of range")
	assert.Contains(t, werr.Trace, "goroutine")

	_, err = pool.Invoke(context.Background(), ai.Input{Text: "fine"})
	assert.NoError(t, err)
}

func TestPool_SerializesRequests(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		overlap bool
	)
	factory := newRecordingFactory()
	factory.setup = func(m *mock.Model) {
		m.Shard = true
		m.EmbedFunc = func(ctx context.Context, in ai.Input) ([]float32, error) {
			if m.Rank == 0 {
				mu.Lock()
				active++
				if active > 1 {
					overlap = true
				}
				mu.Unlock()
				time.Sleep(2 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
			}
			return []float32{1}, nil
		}
	}
	pool := startPool(t, factory.create, WithWorldSize(2))

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Invoke(context.Background(), ai.Input{Text: fmt.Sprint(i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, overlap)
	assert.Equal(t, 10, factory.model(0).CallCount())
	assert.Equal(t, 10, factory.model(1).CallCount())
}

func TestPool_StartFailureClosesLoadedModels(t *testing.T) {
	factory := newRecordingFactory()
	factory.failRank = 2

	pool, err := New(factory.create, WithWorldSize(3), WithReadyDelay(0))
	require.NoError(t, err)

	err = pool.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of GPU memory")

	for rank := range 2 {
		if m := factory.model(rank); m != nil {
			assert.True(t, m.Closed(), "rank %d", rank)
		}
	}

	_, err = pool.Invoke(context.Background(), ai.Input{Text: "x"})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestPool_Lifecycle(t *testing.T) {
	factory := newRecordingFactory()
	pool, err := New(factory.create, WithWorldSize(2), WithReadyDelay(0))
	require.NoError(t, err)

	_, err = pool.Invoke(context.Background(), ai.Input{Text: "early"})
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, pool.Start(context.Background()))
	assert.ErrorIs(t, pool.Start(context.Background()), ErrAlreadyStarted)

	require.NoError(t, pool.Shutdown(context.Background()))
	require.NoError(t, pool.Shutdown(context.Background()), "idempotent")
	pool.Close()

	for rank := range 2 {
		assert.True(t, factory.model(rank).Closed())
	}

	_, err = pool.Invoke(context.Background(), ai.Input{Text: "late"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, pool.Start(context.Background()), ErrClosed)
}

func TestPool_ReadyDelay(t *testing.T) {
	pool, err := New(mock.Factory(2), WithReadyDelay(30*time.Millisecond))
	require.NoError(t, err)
	defer pool.Close()

	start := time.Now()
	require.NoError(t, pool.Start(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestPool_CloseUnblocksPendingRequest(t *testing.T) {
	release := make(chan struct{})
	factory := newRecordingFactory()
	factory.setup = func(m *mock.Model) {
		m.EmbedFunc = func(ctx context.Context, in ai.Input) ([]float32, error) {
			<-release
			return []float32{1}, nil
		}
	}
	pool := startPool(t, factory.create)
	defer close(release)

	errCh := make(chan error, 1)
	go func() {
		_, err := pool.Invoke(context.Background(), ai.Input{Text: "stuck"})
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	pool.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Invoke did not return after Close")
	}
}

func TestPool_ShutdownTimeout(t *testing.T) {
	release := make(chan struct{})
	factory := newRecordingFactory()
	factory.setup = func(m *mock.Model) {
		m.EmbedFunc = func(ctx context.Context, in ai.Input) ([]float32, error) {
			<-release
			return []float32{1}, nil
		}
	}
	pool := startPool(t, factory.create, WithShutdownTimeout(50*time.Millisecond))
	defer close(release)

	go func() { _, _ = pool.Invoke(context.Background(), ai.Input{Text: "stuck"}) }()
	time.Sleep(20 * time.Millisecond)

	err := pool.Shutdown(context.Background())
	assert.ErrorIs(t, err, ErrShutdownTimeout)
}

func TestPool_InvokeCanceled(t *testing.T) {
	release := make(chan struct{})
	factory := newRecordingFactory()
	factory.setup = func(m *mock.Model) {
		m.EmbedFunc = func(ctx context.Context, in ai.Input) ([]float32, error) {
			<-release
			return []float32{1}, nil
		}
	}
	pool := startPool(t, factory.create)
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := pool.Invoke(ctx, ai.Input{Text: "slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSelectAuthority(t *testing.T) {
	vec, err := SelectAuthority([]Reply{{Rank: 1}, {Rank: 0, Embedding: []float32{1, 2}}})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vec)

	_, err = SelectAuthority([]Reply{{Rank: 0}})
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = SelectAuthority([]Reply{{Rank: 1, Embedding: []float32{1}}})
	assert.ErrorIs(t, err, ErrNoResult)

	werr := &WorkerError{Rank: 0, Message: "oom"}
	_, err = SelectAuthority([]Reply{{Rank: 0, Err: werr}, {Rank: 1, Embedding: []float32{1}}})
	assert.Equal(t, werr, err)
	assert.EqualError(t, err, "worker 0: oom")
}
