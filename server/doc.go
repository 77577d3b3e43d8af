// Package server exposes a worker pool over HTTP.
//
// POST /embed (and its alias POST /) accepts a JSON body with text, an
// image URL or a video URL plus processing hints. Media is downloaded to a
// temporary file, embedded by the pool and removed. The response carries
// the embedding and its dimension. Failures are answered with a plain-text
// body and a non-200 status.
package server
