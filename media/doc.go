// Package media moves media between URLs and local files.
//
// Fetcher downloads an image or video URL to a uniquely named temporary
// file, enforcing a per-kind size limit. Prober checks with a HEAD request
// that a URL still serves media before the ingestion pipeline spends a
// remote call on it.
package media
