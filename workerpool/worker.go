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
	"runtime/debug"

	"github.com/poiesic/vecingest/ai"
)

// Reply is a worker's answer to one request.
type Reply struct {
	Rank      int
	Embedding []float32
	Err       *WorkerError
}

// message is one inbox entry. A nil input is the stop sentinel.
type message struct {
	input *ai.Input
	reply chan<- Reply
}

// Worker owns one model shard and serves requests from its inbox.
type Worker struct {
	rank    int
	model   ai.Model
	sharded bool
	inbox   chan message
	done    chan struct{}
	logger  *slog.Logger
}

func newWorker(rank int, model ai.Model, logger *slog.Logger) *Worker {
	return &Worker{
		rank:    rank,
		model:   model,
		sharded: ai.IsSharded(model),
		inbox:   make(chan message, 1),
		done:    make(chan struct{}),
		logger:  logger.With("rank", rank),
	}
}

// Rank returns the worker's rank.
func (w *Worker) Rank() int {
	return w.rank
}

// Done is closed when the worker loop has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// run is the worker loop. It exits on the stop sentinel or when ctx ends,
// closing the model on the way out.
func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer func() {
		if err := w.model.Close(); err != nil {
			w.logger.Warn("closing model", "err", err)
		}
	}()

	w.logger.Debug("worker loop started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("worker canceled")
			return
		case msg := <-w.inbox:
			if msg.input == nil {
				w.logger.Debug("received stop, exiting")
				return
			}
			msg.reply <- w.handle(ctx, *msg.input)
		}
	}
}

// handle processes one request synchronously. Errors and panics are
// reported as a WorkerError. Non-authoritative ranks of a replica model
// acknowledge with an empty reply.
func (w *Worker) handle(ctx context.Context, in ai.Input) (reply Reply) {
	reply.Rank = w.rank
	if w.rank != 0 && !w.sharded {
		return reply
	}
	defer func() {
		if p := recover(); p != nil {
			w.logger.Error("request panicked", "panic", p)
			reply.Embedding = nil
			reply.Err = &WorkerError{
				Rank:    w.rank,
				Message: fmt.Sprintf("panic: %v", p),
				Trace:   string(debug.Stack()),
			}
		}
	}()

	vec, err := w.model.Embed(ctx, in)
	if err != nil {
		w.logger.Warn("request failed", "err", err)
		reply.Err = &WorkerError{Rank: w.rank, Message: err.Error(), Trace: string(debug.Stack())}
		return reply
	}
	reply.Embedding = vec
	return reply
}
