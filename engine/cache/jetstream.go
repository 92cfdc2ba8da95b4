package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// KV is a persistent Store on a NATS JetStream key-value bucket. Entries
// survive across runs; the bucket outlives any single pipeline run and is
// cleared only by operator action.
type KV struct {
	kv jetstream.KeyValue
}

// NewKV binds to (or creates) the named bucket on an existing connection.
// A connection or bucket failure here is fatal to the pipeline: a run
// cannot start without its cache.
func NewKV(ctx context.Context, nc *nats.Conn, bucket string) (*KV, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("%w: jetstream: %v", ErrUnavailable, err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "takeoff extraction response cache",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: bucket %q: %v", ErrUnavailable, bucket, err)
	}
	return &KV{kv: kv}, nil
}

// Get returns the entry for key, or nil when absent.
func (s *KV) Get(ctx context.Context, key string) (*Entry, error) {
	kve, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", key, err)
	}
	var e Entry
	if err := json.Unmarshal(kve.Value(), &e); err != nil {
		return nil, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return &e, nil
}

// Put writes the entry if absent. KeyValue.Create is the atomic
// write-if-absent: a racing writer loses cleanly.
func (s *KV) Put(ctx context.Context, key string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	_, err = s.kv.Create(ctx, key, data)
	if errors.Is(err, jetstream.ErrKeyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	return nil
}
