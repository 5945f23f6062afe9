package session

import (
	"context"
	"sync"
)

// MemoryBackend is a process-scoped tier: it survives reloads of the
// embedding component within one process but nothing beyond that. It is the
// tab-scoped analog in the chain and the workhorse backend in tests.
type MemoryBackend struct {
	name string

	mu   sync.Mutex
	data []byte
}

// NewMemoryBackend creates an empty in-process tier. name appears in logs
// and metrics; it defaults to "memory" when empty.
func NewMemoryBackend(name string) *MemoryBackend {
	if name == "" {
		name = "memory"
	}
	return &MemoryBackend{name: name}
}

func (b *MemoryBackend) Name() string {
	return b.name
}

func (b *MemoryBackend) Get(context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return nil, ErrNotFound
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

func (b *MemoryBackend) Set(_ context.Context, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = stored
	return nil
}

func (b *MemoryBackend) Delete(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
	return nil
}
