package remote

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// FailureClass categorizes the outcome of a remote call.
type FailureClass int

const (
	// ClassNone means the call succeeded.
	ClassNone FailureClass = iota
	// ClassTransient covers 5xx, rate limiting, timeouts and network errors.
	// These are retried while attempts remain.
	ClassTransient
	// ClassPoisoned covers responses carrying recognizably broken data.
	// These are never retried.
	ClassPoisoned
	// ClassClient covers other 4xx responses. They are retried like transient
	// failures but reported separately.
	ClassClient
	// ClassCanceled means the caller's context ended.
	ClassCanceled
)

func (c FailureClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassPoisoned:
		return "poisoned"
	case ClassClient:
		return "client"
	case ClassCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by a Client to its failure class.
func Classify(err error) FailureClass {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrPoisoned) || errors.Is(err, ErrDimensionMismatch) || errors.Is(err, ErrEmptyEmbedding) {
		return ClassPoisoned
	}
	if errors.Is(err, context.Canceled) {
		return ClassCanceled
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case isPoisonedStatus(statusErr):
			return ClassPoisoned
		case statusErr.Code == http.StatusTooManyRequests,
			statusErr.Code == http.StatusRequestTimeout,
			statusErr.Code >= 500:
			return ClassTransient
		case statusErr.Code >= 400:
			return ClassClient
		}
	}
	return ClassTransient
}

// isPoisonedStatus reports whether a 5xx body carries an upstream rate-limit
// page or a malformed-media marker.
func isPoisonedStatus(e *StatusError) bool {
	if e.Code < 500 {
		return false
	}
	for _, marker := range poisonMarkers {
		if strings.Contains(e.Body, marker) {
			return true
		}
	}
	return false
}
