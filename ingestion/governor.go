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


package ingestion

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// Governor bounds the number of in-flight pipeline tasks.
// Submit blocks while every slot is taken.
type Governor struct {
	pool    *ants.Pool
	wg      sync.WaitGroup
	running atomic.Int32
	logger  *slog.Logger
}

// NewGovernor creates a governor with the given number of slots.
// A size below 1 is treated as 1.
func NewGovernor(size int, logger *slog.Logger) (*Governor, error) {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	g := &Governor{logger: logger}

	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(p any) {
		g.logger.Error("pipeline task panicked", "panic", p)
	}))
	if err != nil {
		return nil, err
	}
	g.pool = pool
	return g, nil
}

// Submit schedules task, waiting for a free slot.
func (g *Governor) Submit(task func()) error {
	g.wg.Add(1)
	err := g.pool.Submit(func() {
		defer g.wg.Done()
		g.running.Add(1)
		defer g.running.Add(-1)
		task()
	})
	if err != nil {
		g.wg.Done()
	}
	return err
}

// Wait blocks until every submitted task has finished.
func (g *Governor) Wait() {
	g.wg.Wait()
}

// Cap returns the number of slots.
func (g *Governor) Cap() int {
	return g.pool.Cap()
}

// Running returns the number of tasks currently holding a slot.
func (g *Governor) Running() int {
	return int(g.running.Load())
}

// Release frees the underlying worker pool.
// The governor must not be used afterwards.
func (g *Governor) Release() {
	g.pool.Release()
}
