// Package sources turns raw dataset exports into ingestion work items.
//
// Each adapter owns one source format and one id namespace:
//   - Generation: JSON exports of generation rows (namespace "gen")
//   - Pexels: video dataset exports (namespace "pexels")
//   - LAION: captioned image dataset exports (namespace "laion")
//   - Text: plain caption lists (namespace "text")
//
// Every adapter implements ingestion.Source and exposes a Normalize method
// mapping one raw row to a WorkItem, or rejecting it.
package sources
