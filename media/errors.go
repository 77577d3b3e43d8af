package media

import "errors"

var (
	// ErrTooLarge is returned when a download exceeds the size limit.
	ErrTooLarge = errors.New("media exceeds size limit")

	// ErrDownloadFailed is returned when a URL answers with a non-200 status.
	ErrDownloadFailed = errors.New("media download failed")

	// ErrRateLimited is returned when the media host answers 429.
	ErrRateLimited = errors.New("media host rate limited")

	// ErrNotMedia is returned when a URL does not serve the expected content type.
	ErrNotMedia = errors.New("url does not serve media")

	// ErrNoMedia is returned when an item carries no media URL to fetch.
	ErrNoMedia = errors.New("no media url")
)
