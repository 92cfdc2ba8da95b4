package cache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Memory is a bounded in-memory Store backed by an LRU. Used on its own in
// tests and as the read-through front of a Tiered store.
type Memory struct {
	mu  sync.Mutex
	lru *lru.Cache[string, Entry]
}

// DefaultMemorySize bounds the in-memory tier.
const DefaultMemorySize = 4096

// NewMemory creates a Memory store holding up to size entries.
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	l, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, err
	}
	return &Memory{lru: l}, nil
}

// Get returns the entry for key, or nil when absent.
func (m *Memory) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.lru.Get(key); ok {
		return &e, nil
	}
	return nil, nil
}

// Put stores the entry unless the key is already present. The check and
// insert happen under one lock so racing writers cannot both win.
func (m *Memory) Put(_ context.Context, key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lru.Get(key); ok {
		return nil
	}
	m.lru.Add(key, e)
	return nil
}
