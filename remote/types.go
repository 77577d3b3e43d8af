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

	"github.com/poiesic/vecingest/core"
)

// Request is the JSON body of POST /embed.
type Request struct {
	Text      string  `json:"text,omitempty"`
	ImageURL  string  `json:"image_url,omitempty"`
	VideoURL  string  `json:"video_url,omitempty"`
	MaxPixels int     `json:"max_pixels,omitempty"`
	FPS       float64 `json:"fps,omitempty"`
}

// Response is the JSON body returned by POST /embed.
type Response struct {
	Embedding []float32 `json:"embedding"`
	Dimension int       `json:"dimension"`
}

// RequestFromItem builds the request for a work item.
// FPS is only sent for video items.
func RequestFromItem(item *core.WorkItem) *Request {
	req := &Request{
		Text:      item.Text,
		ImageURL:  item.ImageURL,
		VideoURL:  item.VideoURL,
		MaxPixels: item.MaxPixels,
	}
	if item.Kind() == core.MediaKindVideo {
		req.FPS = item.FPS
	}
	return req
}

// Client performs a single embedding call against the inference service.
// Implementations must be thread-safe for concurrent use.
type Client interface {
	Embed(ctx context.Context, req *Request) (*Response, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req *Request) (*Response, error)

// Embed calls f(ctx, req).
func (f ClientFunc) Embed(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
