// Package remote talks to the embedding inference service.
//
// HTTPClient performs a single POST /embed round trip. RetryingClient wraps
// any Client with bounded retries, exponential backoff and failure
// classification, and reports every outcome as a tagged Result so callers
// can aggregate without handling errors per item.
//
// Failure classes:
//   - transient: 5xx, 429, timeouts and network errors; retried
//   - client: other 4xx; retried while attempts remain
//   - poisoned: a 5xx whose body contains "429" or "Invalid data found",
//     an empty vector, or a vector of the wrong dimension; never retried
package remote
