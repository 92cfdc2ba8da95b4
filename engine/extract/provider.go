// Package extract dispatches chunks to an external structured-extraction
// capability through a bounded worker pool, consulting and populating the
// response cache, de-duplicating in-flight calls per cache key, and
// retrying transient failures with backoff.
package extract

import (
	"context"
	"errors"

	"github.com/voltdraft/takeoff/engine/domain"
)

// Instructions identifies the extraction instruction set. The content is
// opaque to the engine; only its identity participates in cache keys, so a
// new instruction revision gets a fresh cache namespace.
type Instructions struct {
	ID   string
	Text string
}

// Request is what crosses the capability boundary for one chunk.
type Request struct {
	Instructions Instructions
	ChunkText    string
	Pages        []domain.PageRef
}

// RawResponse is the untrusted structured payload returned per chunk,
// before validation.
type RawResponse struct {
	Payload      []byte
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Capability is the external structured-extraction boundary. Errors must
// be classified with Transient or Permanent so the retry policy can tell
// rate limits and timeouts apart from permanently malformed requests.
type Capability interface {
	Invoke(ctx context.Context, req Request) (RawResponse, error)
}

type classifiedError struct {
	err       error
	transient bool
}

func (e *classifiedError) Error() string { return e.err.Error() }
func (e *classifiedError) Unwrap() error { return e.err }

// Transient marks an error as retryable (timeout, rate limit, overload).
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, transient: true}
}

// Permanent marks an error as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, transient: false}
}

// IsTransient reports whether err is worth retrying. Deadline expiry and
// cancellation count as transient: the per-attempt timeout is itself a
// transient failure mode. Unclassified errors are treated as permanent.
func IsTransient(err error) bool {
	var ce *classifiedError
	if errors.As(err, &ce) {
		return ce.transient
	}
	return errors.Is(err, context.DeadlineExceeded)
}
