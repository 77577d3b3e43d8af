// Package ingestion provides pipeline orchestration for embedding media work items.
//
// The Pipeline type manages one ingestion run end to end:
//   - Enumerating work items from a Source
//   - Skipping items whose ids are already stored (DedupIndex)
//   - Spacing remote calls with a shared RateLimiter
//   - Bounding in-flight tasks with a Governor
//   - Writing results in fixed-size batches (BatchWriter)
//
// Item failures are counted in the run summary and never abort the run.
// Only source enumeration and store failures are fatal.
package ingestion
