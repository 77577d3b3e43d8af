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


package remote

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retry defaults.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// Result is the tagged outcome of RetryingClient.Call.
// Exactly one of Embedding and Err is set.
type Result struct {
	Embedding []float32
	Attempts  int
	Class     FailureClass
	Err       error
}

// OK reports whether the call produced an embedding.
func (r Result) OK() bool {
	return r.Err == nil
}

// RetryingClient wraps a Client with bounded retries and failure
// classification. Call never returns a Go error; every outcome is folded
// into a Result.
type RetryingClient struct {
	client     Client
	maxRetries int
	retryDelay time.Duration
	dimension  int
	logger     *slog.Logger
}

// RetryOption configures a RetryingClient.
type RetryOption func(*RetryingClient) error

// WithMaxRetries sets the total number of attempts per call.
// Default is DefaultMaxRetries.
func WithMaxRetries(n int) RetryOption {
	return func(c *RetryingClient) error {
		if n <= 0 {
			return ErrInvalidMaxAttempts
		}
		c.maxRetries = n
		return nil
	}
}

// WithRetryDelay sets the delay before the first retry. Later retries double it.
// Default is DefaultRetryDelay.
func WithRetryDelay(d time.Duration) RetryOption {
	return func(c *RetryingClient) error {
		if d < 0 {
			d = 0
		}
		c.retryDelay = d
		return nil
	}
}

// WithDimension rejects responses whose vector length differs from d.
// Zero disables the check.
func WithDimension(d int) RetryOption {
	return func(c *RetryingClient) error {
		c.dimension = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) RetryOption {
	return func(c *RetryingClient) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewRetryingClient wraps client with retry and classification.
func NewRetryingClient(client Client, opts ...RetryOption) (*RetryingClient, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	c := &RetryingClient{
		client:     client,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "retrying-client")
	return c, nil
}

// MaxRetries returns the configured number of attempts per call.
func (c *RetryingClient) MaxRetries() int {
	return c.maxRetries
}

// Call sends req, retrying transient failures with exponential backoff.
// Poisoned responses are returned after a single attempt.
func (c *RetryingClient) Call(ctx context.Context, req *Request) Result {
	var (
		attempts int
		resp     *Response
	)

	err := RetryWithBackoff(ctx, func() error {
		attempts++
		var err error
		resp, err = c.client.Embed(ctx, req)
		if err == nil {
			err = c.checkDimension(resp)
		}
		if err != nil {
			class := Classify(err)
			c.logger.Debug("embed attempt failed", "attempt", attempts, "class", class, "err", err)
			if class == ClassPoisoned || class == ClassCanceled {
				return Permanent(err)
			}
			return err
		}
		return nil
	}, c.maxRetries, c.retryDelay)

	if err != nil {
		class := Classify(err)
		if ctx.Err() != nil {
			class = ClassCanceled
		}
		return Result{
			Attempts: attempts,
			Class:    class,
			Err:      fmt.Errorf("embed failed after %d attempt(s): %w", attempts, err),
		}
	}
	return Result{Embedding: resp.Embedding, Attempts: attempts}
}

func (c *RetryingClient) checkDimension(resp *Response) error {
	if len(resp.Embedding) == 0 {
		return ErrEmptyEmbedding
	}
	if c.dimension > 0 && len(resp.Embedding) != c.dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, c.dimension, len(resp.Embedding))
	}
	return nil
}
