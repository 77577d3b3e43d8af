package server

import "errors"

var (
	// ErrEmbedderRequired is returned when a server is built without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrFetcherRequired is returned when a server is built without a media fetcher.
	ErrFetcherRequired = errors.New("media fetcher required")

	// ErrBadRequest marks a request body that cannot be served.
	ErrBadRequest = errors.New("bad request")
)
