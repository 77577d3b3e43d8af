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
	"sync"
)

// Default rendezvous address shared by every worker of a pool.
const (
	DefaultMasterAddr = "localhost"
	DefaultMasterPort = 12355
)

// Group is a rendezvous barrier: Join returns once every rank has joined.
type Group struct {
	addr  string
	world int

	mu      sync.Mutex
	arrived map[int]bool
	ready   chan struct{}
}

// NewGroup creates a rendezvous group for world workers at addr.
func NewGroup(addr string, world int) *Group {
	return &Group{
		addr:    addr,
		world:   world,
		arrived: make(map[int]bool, world),
		ready:   make(chan struct{}),
	}
}

// Addr returns the rendezvous address.
func (g *Group) Addr() string {
	return g.addr
}

// Join registers rank and blocks until every rank has joined or ctx ends.
func (g *Group) Join(ctx context.Context, rank int) error {
	g.mu.Lock()
	if rank < 0 || rank >= g.world {
		g.mu.Unlock()
		return fmt.Errorf("rank %d outside world of %d", rank, g.world)
	}
	if g.arrived[rank] {
		g.mu.Unlock()
		return fmt.Errorf("rank %d joined twice", rank)
	}
	g.arrived[rank] = true
	if len(g.arrived) == g.world {
		close(g.ready)
	}
	g.mu.Unlock()

	select {
	case <-g.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
