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
	"context"
	"sync"
)

// IDScanner lists stored identifiers by prefix.
type IDScanner interface {
	ScanIDs(ctx context.Context, prefix string) ([]string, error)
}

// DedupIndex is the set of identifiers already persisted for a run, plus the
// identifiers currently claimed by in-flight tasks.
//
// The persisted set only grows. A claim is held from admission until the
// item's store write is confirmed (the id moves to the persisted set) or the
// item fails (the claim is dropped). Two items resolving to the same id can
// therefore never be in flight together.
type DedupIndex struct {
	mu      sync.Mutex
	prefix  string
	stored  map[string]struct{}
	claimed map[string]struct{}
}

// NewDedupIndex creates an empty index.
func NewDedupIndex() *DedupIndex {
	return &DedupIndex{
		stored:  make(map[string]struct{}),
		claimed: make(map[string]struct{}),
	}
}

// Load hydrates the index with every stored id starting with prefix.
func (d *DedupIndex) Load(ctx context.Context, scanner IDScanner, prefix string) error {
	ids, err := scanner.ScanIDs(ctx, prefix)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.prefix = prefix
	for _, id := range ids {
		d.stored[id] = struct{}{}
	}
	return nil
}

// Prefix returns the prefix the index was loaded with.
func (d *DedupIndex) Prefix() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prefix
}

// Contains reports whether id is known to be persisted.
func (d *DedupIndex) Contains(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.stored[id]
	return ok
}

// Add records ids as persisted and drops any claims on them.
func (d *DedupIndex) Add(ids ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		d.stored[id] = struct{}{}
		delete(d.claimed, id)
	}
}

// Claim reserves id for processing. It returns false if id is already
// persisted or claimed.
func (d *DedupIndex) Claim(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.stored[id]; ok {
		return false
	}
	if _, ok := d.claimed[id]; ok {
		return false
	}
	d.claimed[id] = struct{}{}
	return true
}

// Release drops claims without marking the ids persisted.
func (d *DedupIndex) Release(ids ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		delete(d.claimed, id)
	}
}

// Len returns the number of persisted ids.
func (d *DedupIndex) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.stored)
}
