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


package media

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/poiesic/vecingest/core"
)

// DefaultProbeTimeout bounds a single HEAD request.
const DefaultProbeTimeout = 10 * time.Second

// Prober checks that media URLs are reachable and serve media.
// Check has the signature of an ingestion preflight.
type Prober struct {
	client    *http.Client
	timeout   time.Duration
	throttled atomic.Int64
	logger    *slog.Logger
}

// NewProber creates a Prober. A nil client uses http.DefaultClient and a
// zero timeout uses DefaultProbeTimeout.
func NewProber(client *http.Client, timeout time.Duration, logger *slog.Logger) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		client:  client,
		timeout: timeout,
		logger:  logger.With("component", "prober"),
	}
}

// Check sends a HEAD request for the item's media URL. Text-only items
// pass without a request. Redirects are followed.
func (p *Prober) Check(ctx context.Context, item *core.WorkItem) error {
	target := item.VideoURL
	if target == "" {
		target = item.ImageURL
	}
	if target == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		n := p.throttled.Add(1)
		p.logger.Warn("media host rate limited", "url", target, "consecutive", n)
		return fmt.Errorf("%w: %d consecutive", ErrRateLimited, n)
	}
	p.throttled.Store(0)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !acceptable(item.Kind(), contentType) {
		return fmt.Errorf("%w: content-type %q", ErrNotMedia, contentType)
	}
	return nil
}

// ConsecutiveRateLimits returns the number of 429 answers since the last
// non-429 answer.
func (p *Prober) ConsecutiveRateLimits() int64 {
	return p.throttled.Load()
}

func acceptable(kind core.MediaKind, contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "octet-stream") {
		return true
	}
	switch kind {
	case core.MediaKindVideo:
		return strings.Contains(ct, "video")
	case core.MediaKindImage:
		return strings.Contains(ct, "image")
	default:
		return true
	}
}
