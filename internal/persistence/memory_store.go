package persistence

import (
	"context"
	"sync"
)

// InMemoryBackend is a goroutine-safe Backend backed by a map.
type InMemoryBackend struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewInMemoryBackend creates a new InMemoryBackend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		records: make(map[string][]byte),
	}
}

// Ensure InMemoryBackend implements Backend.
var _ Backend = (*InMemoryBackend)(nil)

func (b *InMemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, ok := b.records[key]
	if !ok {
		return nil, ErrRecordNotFound
	}

	return append([]byte(nil), data...), nil
}

func (b *InMemoryBackend) Put(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records[key] = append([]byte(nil), data...)
	return nil
}

func (b *InMemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.records, key)
	return nil
}
