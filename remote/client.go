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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single call. Inference on video is slow.
	DefaultTimeout = 5 * time.Minute

	embedPath    = "/embed"
	maxErrorBody = 64 << 10
)

// HTTPClient calls the /embed endpoint of a remote inference service.
type HTTPClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTimeout sets the per-call timeout.
// Default is DefaultTimeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.http = client
		}
	}
}

// WithHTTPLogger sets a custom logger.
// Default is slog.Default().
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// newHTTPClient is an internal constructor that returns the concrete type.
func newHTTPClient(endpoint, apiKey string, opts ...HTTPOption) (*HTTPClient, error) {
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	c := &HTTPClient{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: DefaultTimeout},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "remote-client")
	return c, nil
}

// NewHTTPClient creates a client for the inference service at endpoint.
// Requests are authenticated with an "Authorization: Key <apiKey>" header.
//
// Returns Client interface to enforce abstraction.
func NewHTTPClient(endpoint, apiKey string, opts ...HTTPOption) (Client, error) {
	return newHTTPClient(endpoint, apiKey, opts...)
}

// Embed performs one POST /embed round trip.
// Non-200 responses are returned as *StatusError.
func (c *HTTPClient) Embed(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, Permanent(fmt.Errorf("encoding request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+embedPath, bytes.NewReader(body))
	if err != nil {
		return nil, Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Key "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{Code: resp.StatusCode, Body: string(text)}
		c.logger.Debug("embed call failed", "status", resp.StatusCode, "body", truncate(statusErr.Body, 200))
		return nil, statusErr
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	if out.Dimension == 0 {
		out.Dimension = len(out.Embedding)
	}
	return &out, nil
}
