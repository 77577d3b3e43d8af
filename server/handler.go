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


package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/poiesic/vecingest/ai"
	"github.com/poiesic/vecingest/core"
	"github.com/poiesic/vecingest/media"
	"github.com/poiesic/vecingest/remote"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleEmbed(w http.ResponseWriter, r *http.Request) {
	var req remote.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid request body: %w", ErrBadRequest, err))
		return
	}

	in, path, err := s.prepare(r.Context(), &req)
	defer s.fetcher.Remove(path)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	vec, err := s.embedder.Invoke(r.Context(), in)
	if err != nil {
		s.logger.Error("embedding failed", "kind", in.Kind(), "err", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(remote.Response{Embedding: vec, Dimension: len(vec)})
}

// prepare validates req, applies default hints and downloads its media.
// The returned path is empty for text requests and must be removed by the
// caller otherwise.
func (s *Server) prepare(ctx context.Context, req *remote.Request) (ai.Input, string, error) {
	in := ai.Input{
		Text:      req.Text,
		MaxPixels: req.MaxPixels,
		FPS:       req.FPS,
	}
	if in.MaxPixels <= 0 {
		in.MaxPixels = s.maxPixels
	}
	if in.FPS <= 0 {
		in.FPS = s.fps
	}

	switch {
	case req.ImageURL != "" && req.VideoURL != "":
		return in, "", fmt.Errorf("%w: image_url and video_url are mutually exclusive", ErrBadRequest)
	case req.VideoURL != "":
		path, err := s.fetcher.Fetch(ctx, req.VideoURL, core.MediaKindVideo)
		in.VideoPath = path
		return in, path, err
	case req.ImageURL != "":
		path, err := s.fetcher.Fetch(ctx, req.ImageURL, core.MediaKindImage)
		in.ImagePath = path
		return in, path, err
	case req.Text == "":
		return in, "", fmt.Errorf("%w: one of text, image_url or video_url is required", ErrBadRequest)
	}
	return in, "", nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, ai.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	http.Error(w, err.Error(), status)
}
