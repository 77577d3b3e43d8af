// Package mock provides a test double for the ai.Model interface.
//
// The mock model produces deterministic unit vectors derived from the input,
// so the same input always maps to the same embedding. Tests can override
// the behavior and inspect call counts.
//
// # Usage in Tests
//
//	model := mock.NewModel(8)
//	model.EmbedFunc = func(ctx context.Context, in ai.Input) ([]float32, error) {
//	    return nil, errors.New("out of memory")
//	}
//
//	pool, err := workerpool.New(mock.Factory(8), workerpool.WithWorldSize(2))
//
// # Default Behavior
//
// Embed hashes the prompt together with any media path and expands the hash
// into a normalized vector of the configured dimension.
package mock
