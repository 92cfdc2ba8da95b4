package cache

import (
	"bytes"
	"context"
	"testing"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("instr-1", "chunk text")
	b := Fingerprint("instr-1", "chunk text")
	if a != b {
		t.Fatalf("same inputs produced different fingerprints: %s vs %s", a, b)
	}
}

func TestFingerprintDiscriminates(t *testing.T) {
	base := Fingerprint("instr-1", "chunk text")
	if Fingerprint("instr-2", "chunk text") == base {
		t.Fatal("different instruction sets share a fingerprint")
	}
	if Fingerprint("instr-1", "other text") == base {
		t.Fatal("different chunk texts share a fingerprint")
	}
	// The separator keeps (id, text) pairs from colliding across the
	// boundary.
	if Fingerprint("ab", "c") == Fingerprint("a", "bc") {
		t.Fatal("fingerprint collides across the id/text boundary")
	}
}

func TestMemoryWriteIfAbsent(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemory(8)
	if err != nil {
		t.Fatal(err)
	}

	if e, err := m.Get(ctx, "k"); err != nil || e != nil {
		t.Fatalf("empty cache Get = (%v, %v), want (nil, nil)", e, err)
	}
	if err := m.Put(ctx, "k", NewEntry([]byte(`{"a":1}`))); err != nil {
		t.Fatal(err)
	}
	// Second write for the same key must not replace the first.
	if err := m.Put(ctx, "k", NewEntry([]byte(`{"a":2}`))); err != nil {
		t.Fatal(err)
	}
	e, err := m.Get(ctx, "k")
	if err != nil || e == nil {
		t.Fatalf("Get = (%v, %v), want entry", e, err)
	}
	if !bytes.Equal(e.Payload, []byte(`{"a":1}`)) {
		t.Fatalf("first write was replaced: %s", e.Payload)
	}
}

// countingStore counts operations hitting the wrapped store.
type countingStore struct {
	Store
	gets, puts int
}

func (c *countingStore) Get(ctx context.Context, key string) (*Entry, error) {
	c.gets++
	return c.Store.Get(ctx, key)
}

func (c *countingStore) Put(ctx context.Context, key string, e Entry) error {
	c.puts++
	return c.Store.Put(ctx, key, e)
}

func TestTieredBackfillsFront(t *testing.T) {
	ctx := context.Background()
	front, _ := NewMemory(8)
	backMem, _ := NewMemory(8)
	back := &countingStore{Store: backMem}

	if err := backMem.Put(ctx, "k", NewEntry([]byte(`{}`))); err != nil {
		t.Fatal(err)
	}
	tiered := NewTiered(front, back)

	e, err := tiered.Get(ctx, "k")
	if err != nil || e == nil {
		t.Fatalf("Get = (%v, %v), want entry from back tier", e, err)
	}
	if back.gets != 1 {
		t.Fatalf("back gets = %d, want 1", back.gets)
	}
	// Front is now filled; the back tier must not be consulted again.
	if _, err := tiered.Get(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if back.gets != 1 {
		t.Fatalf("back gets after front fill = %d, want 1", back.gets)
	}
}

func TestTieredPutWritesBothTiers(t *testing.T) {
	ctx := context.Background()
	front, _ := NewMemory(8)
	backMem, _ := NewMemory(8)
	back := &countingStore{Store: backMem}
	tiered := NewTiered(front, back)

	if err := tiered.Put(ctx, "k", NewEntry([]byte(`{}`))); err != nil {
		t.Fatal(err)
	}
	if back.puts != 1 {
		t.Fatalf("back puts = %d, want 1", back.puts)
	}
	if e, _ := front.Get(ctx, "k"); e == nil {
		t.Fatal("front tier missing entry after Put")
	}
}
