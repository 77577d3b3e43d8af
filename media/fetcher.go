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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/vecingest/core"
)

// Size limits per media kind.
const (
	MaxImageSize int64 = 50 * 1024 * 1024
	MaxVideoSize int64 = 500 * 1024 * 1024
)

// Fetcher downloads media URLs to local temporary files.
type Fetcher struct {
	client   *http.Client
	dir      string
	maxImage int64
	maxVideo int64
	logger   *slog.Logger
}

// FetchOption configures a Fetcher.
type FetchOption func(*Fetcher) error

// WithHTTPClient sets the HTTP client used for downloads.
// Default is http.DefaultClient.
func WithHTTPClient(client *http.Client) FetchOption {
	return func(f *Fetcher) error {
		if client != nil {
			f.client = client
		}
		return nil
	}
}

// WithDir sets the directory downloads are written to.
// Default is os.TempDir().
func WithDir(dir string) FetchOption {
	return func(f *Fetcher) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating download directory: %w", err)
		}
		f.dir = dir
		return nil
	}
}

// WithMaxSizes overrides the image and video size limits in bytes.
func WithMaxSizes(image, video int64) FetchOption {
	return func(f *Fetcher) error {
		f.maxImage = image
		f.maxVideo = video
		return nil
	}
}

// WithFetchLogger sets a custom logger.
// Default is slog.Default().
func WithFetchLogger(logger *slog.Logger) FetchOption {
	return func(f *Fetcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
		return nil
	}
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...FetchOption) (*Fetcher, error) {
	f := &Fetcher{
		client:   http.DefaultClient,
		dir:      os.TempDir(),
		maxImage: MaxImageSize,
		maxVideo: MaxVideoSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	f.logger = f.logger.With("component", "fetcher")
	return f, nil
}

// Limit returns the size limit for kind.
func (f *Fetcher) Limit(kind core.MediaKind) int64 {
	if kind == core.MediaKindVideo {
		return f.maxVideo
	}
	return f.maxImage
}

// Fetch downloads rawURL to a new file and returns its path. The caller
// owns the file and must remove it. A download larger than the limit for
// kind is aborted and leaves no file behind.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, kind core.MediaKind) (string, error) {
	limit := f.Limit(kind)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned status %d", ErrDownloadFailed, rawURL, resp.StatusCode)
	}
	if resp.ContentLength > limit {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, resp.ContentLength, limit)
	}

	target := filepath.Join(f.dir, strings.ReplaceAll(uuid.NewString(), "-", "")+extension(rawURL))
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	n, err := io.Copy(file, io.LimitReader(resp.Body, limit+1))
	closeErr := file.Close()
	switch {
	case err != nil:
		err = fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	case n > limit:
		err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	case closeErr != nil:
		err = fmt.Errorf("closing file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(target)
		return "", err
	}

	f.logger.Debug("downloaded media", "url", rawURL, "bytes", n, "path", target)
	return target, nil
}

// Remove deletes a file returned by Fetch. Missing files are ignored.
func (f *Fetcher) Remove(p string) {
	if p == "" {
		return
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		f.logger.Warn("removing downloaded media", "path", p, "err", err)
	}
}

// extension returns the file extension of the URL path, or ".tmp".
func extension(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	if ext := path.Ext(p); ext != "" {
		return ext
	}
	return ".tmp"
}
