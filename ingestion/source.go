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

	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/remote"
)

// Source enumerates the work items of one run.
type Source interface {
	// Namespace is the id namespace shared by every item of the source.
	// The dedup index is hydrated with the ids under this namespace.
	Namespace() string

	// Items returns the work items to process. An error aborts the run.
	Items(ctx context.Context) ([]*core.WorkItem, error)
}

// SkipReporter is implemented by sources that drop already stored items
// during enumeration. The pipeline counts them as skipped.
type SkipReporter interface {
	// Skipped returns the number of items dropped by the last Items call.
	Skipped() int
}

// Caller performs one embedding call with retries and reports the outcome
// as a tagged result. *remote.RetryingClient satisfies it.
type Caller interface {
	Call(ctx context.Context, req *remote.Request) remote.Result
}

// Preflight vets an item after admission and before the rate gate.
// A non-nil error counts the item as failed without calling the remote.
type Preflight func(ctx context.Context, item *core.WorkItem) error

// StaticSource is a Source over a fixed slice of items.
type StaticSource struct {
	NS    string
	Batch []*core.WorkItem
}

var _ Source = (*StaticSource)(nil)

// Namespace returns the configured namespace.
func (s *StaticSource) Namespace() string { return s.NS }

// Items returns the configured items.
func (s *StaticSource) Items(ctx context.Context) ([]*core.WorkItem, error) {
	return s.Batch, nil
}
