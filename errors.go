package vecingest

import "errors"

// ErrNoEndpoint is returned when an operation needs the remote embedding
// endpoint and the database was opened without one.
var ErrNoEndpoint = errors.New("no embedding endpoint configured")
