// Package cache provides the content-addressed store for raw extraction
// responses. Entries are keyed by a fingerprint of (instruction identity,
// chunk content): identical content under identical instructions always
// maps to the same key, and a key never maps to more than one value for
// the lifetime of the instructions. There is no automatic invalidation;
// stale entries persist until an operator clears the bucket.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"
)

// ErrUnavailable signals that the backing store cannot be reached. It is
// the only cache error callers are allowed to treat as fatal.
var ErrUnavailable = errors.New("cache store unavailable")

// Entry is the stored value: the raw response payload plus the time it
// was written.
type Entry struct {
	Payload  json.RawMessage `json:"payload"`
	StoredAt time.Time       `json:"stored_at"`
}

// Store is a persistent key→value store for extraction responses.
type Store interface {
	// Get returns the entry for key, or nil when absent.
	Get(ctx context.Context, key string) (*Entry, error)
	// Put writes the entry if the key is absent. Writing an
	// already-present key is a no-op, never an overwrite: the first
	// value wins so concurrent writers of the same fingerprint agree.
	Put(ctx context.Context, key string, e Entry) error
}

// Fingerprint derives the cache key for a chunk under a given instruction
// set. Deterministic by construction.
func Fingerprint(instructionsID, chunkContent string) string {
	h := sha256.New()
	h.Write([]byte(instructionsID))
	h.Write([]byte{0})
	h.Write([]byte(chunkContent))
	return hex.EncodeToString(h.Sum(nil))
}

// NewEntry wraps a raw payload with the current timestamp.
func NewEntry(payload []byte) Entry {
	return Entry{Payload: payload, StoredAt: time.Now().UTC()}
}
