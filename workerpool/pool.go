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


package workerpool

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/poiesic/vecingest/ai"
	"golang.org/x/sync/errgroup"
)

// Pool defaults.
const (
	DefaultReadyDelay      = 2 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

type poolState int

const (
	stateIdle poolState = iota
	stateRunning
	stateClosed
)

// Pool runs WorldSize workers and serves requests in lockstep.
type Pool struct {
	factory         ai.ModelFactory
	worldSize       int
	masterAddr      string
	masterPort      int
	readyDelay      time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	mu       sync.Mutex
	state    poolState
	workers  []*Worker
	cancel   context.CancelFunc
	stopped  chan struct{}
	stopOnce sync.Once

	// callMu serializes broadcasts so every worker sees requests in the same order.
	callMu sync.Mutex
}

// Option configures a Pool.
type Option func(*Pool) error

// WithWorldSize sets the number of workers.
// Default is 1.
func WithWorldSize(n int) Option {
	return func(p *Pool) error {
		if n < 1 {
			return ErrInvalidWorldSize
		}
		p.worldSize = n
		return nil
	}
}

// WithMasterAddr sets the rendezvous address used when WorldSize > 1.
// Default is DefaultMasterAddr:DefaultMasterPort.
func WithMasterAddr(host string, port int) Option {
	return func(p *Pool) error {
		p.masterAddr = host
		p.masterPort = port
		return nil
	}
}

// WithReadyDelay sets how long Start waits after the workers are up.
// Default is DefaultReadyDelay.
func WithReadyDelay(d time.Duration) Option {
	return func(p *Pool) error {
		p.readyDelay = max(d, 0)
		return nil
	}
}

// WithShutdownTimeout bounds how long Shutdown waits for workers to exit.
// Default is DefaultShutdownTimeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(p *Pool) error {
		p.shutdownTimeout = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// New creates a pool. Workers are not started until Start is called.
func New(factory ai.ModelFactory, opts ...Option) (*Pool, error) {
	if factory == nil {
		return nil, ErrFactoryRequired
	}
	p := &Pool{
		factory:         factory,
		worldSize:       1,
		masterAddr:      DefaultMasterAddr,
		masterPort:      DefaultMasterPort,
		readyDelay:      DefaultReadyDelay,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          slog.Default(),
		stopped:         make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "workerpool")
	return p, nil
}

// WorldSize returns the number of workers.
func (p *Pool) WorldSize() int {
	return p.worldSize
}

// Start loads a model for every rank in parallel and starts the worker
// loops. With more than one worker, each rank joins the rendezvous group
// before loading its model. Start returns after the readiness delay.
//
// If any rank fails to start, the models already loaded are closed and the
// error is returned.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case stateRunning:
		p.mu.Unlock()
		return ErrAlreadyStarted
	case stateClosed:
		p.mu.Unlock()
		return ErrClosed
	}

	var group *Group
	if p.worldSize > 1 {
		addr := net.JoinHostPort(p.masterAddr, strconv.Itoa(p.masterPort))
		group = NewGroup(addr, p.worldSize)
		p.logger.Info("initializing rendezvous group", "addr", addr, "world_size", p.worldSize)
	}

	workers := make([]*Worker, p.worldSize)
	g, gctx := errgroup.WithContext(ctx)
	for rank := range p.worldSize {
		g.Go(func() error {
			w, err := p.startWorker(gctx, group, rank)
			if err != nil {
				return err
			}
			workers[rank] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.mu.Unlock()
		for _, w := range workers {
			if w != nil {
				_ = w.model.Close()
			}
		}
		p.logger.Error("worker startup failed", "err", err)
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	for _, w := range workers {
		go w.run(runCtx)
	}
	p.workers = workers
	p.cancel = cancel
	p.state = stateRunning
	p.mu.Unlock()

	p.logger.Info("workers started, waiting for readiness", "world_size", p.worldSize, "delay", p.readyDelay)
	if p.readyDelay > 0 {
		timer := time.NewTimer(p.readyDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.logger.Info("workers ready")
	return nil
}

func (p *Pool) startWorker(ctx context.Context, group *Group, rank int) (w *Worker, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %d setup panicked: %v", rank, r)
		}
	}()

	if group != nil {
		if err := group.Join(ctx, rank); err != nil {
			return nil, fmt.Errorf("worker %d rendezvous: %w", rank, err)
		}
	}

	model, err := p.factory(ctx, rank, p.worldSize)
	if err != nil {
		return nil, fmt.Errorf("worker %d setup: %w", rank, err)
	}
	p.logger.Debug("worker setup complete", "rank", rank)
	return newWorker(rank, model, p.logger), nil
}

// Invoke sends in to every worker and returns the authoritative embedding.
func (p *Pool) Invoke(ctx context.Context, in ai.Input) ([]float32, error) {
	replies, err := p.Broadcast(ctx, in)
	if err != nil {
		return nil, err
	}
	return SelectAuthority(replies)
}

// Broadcast sends in to every worker and waits until each has replied.
// Replies are ordered by rank.
func (p *Pool) Broadcast(ctx context.Context, in ai.Input) ([]Reply, error) {
	p.callMu.Lock()
	defer p.callMu.Unlock()

	workers, err := p.running()
	if err != nil {
		return nil, err
	}

	replies := make(chan Reply, len(workers))
	for _, w := range workers {
		select {
		case w.inbox <- message{input: &in, reply: replies}:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.stopped:
			return nil, ErrClosed
		}
	}

	collected := make([]Reply, 0, len(workers))
	for len(collected) < len(workers) {
		select {
		case r := <-replies:
			collected = append(collected, r)
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.stopped:
			return nil, ErrClosed
		}
	}

	slices.SortFunc(collected, func(a, b Reply) int { return a.Rank - b.Rank })
	return collected, nil
}

// SelectAuthority picks the rank 0 reply from a broadcast.
func SelectAuthority(replies []Reply) ([]float32, error) {
	for _, r := range replies {
		if r.Rank != 0 {
			continue
		}
		if r.Err != nil {
			return nil, r.Err
		}
		if len(r.Embedding) == 0 {
			return nil, ErrNoResult
		}
		return r.Embedding, nil
	}
	return nil, ErrNoResult
}

func (p *Pool) running() ([]*Worker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case stateIdle:
		return nil, ErrNotStarted
	case stateClosed:
		return nil, ErrClosed
	}
	return p.workers, nil
}

// Shutdown stops the pool gracefully: in-flight requests finish, each
// worker receives the stop sentinel, and Shutdown waits up to the shutdown
// timeout for the workers to exit. Calling Shutdown again is a no-op.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.state != stateRunning {
		p.state = stateClosed
		p.mu.Unlock()
		return nil
	}
	p.state = stateClosed
	workers := p.workers
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.shutdownTimeout)
	defer cancel()

	p.logger.Info("shutting down workers", "world_size", len(workers))

	// Wait for the in-flight broadcast, if any.
	locked := make(chan struct{})
	go func() {
		p.callMu.Lock()
		close(locked)
	}()
	select {
	case <-locked:
		defer p.callMu.Unlock()
	case <-ctx.Done():
		go func() {
			<-locked
			p.callMu.Unlock()
		}()
		p.Close()
		return ErrShutdownTimeout
	}

	for _, w := range workers {
		select {
		case w.inbox <- message{}:
		case <-w.done:
		case <-ctx.Done():
		}
	}

	for _, w := range workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn("workers did not exit in time, terminating")
			p.Close()
			return ErrShutdownTimeout
		}
	}

	p.markStopped()
	p.logger.Info("workers stopped")
	return nil
}

// Close terminates the pool unconditionally. Pending requests fail with
// ErrClosed. Close is safe to call more than once and after Shutdown.
func (p *Pool) Close() {
	p.mu.Lock()
	p.state = stateClosed
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.markStopped()
}

func (p *Pool) markStopped() {
	p.stopOnce.Do(func() { close(p.stopped) })
}
