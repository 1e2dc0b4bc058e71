package shortlist

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Backend.Read when nothing was persisted yet.
var ErrNotFound = errors.New("shortlist: nothing persisted")

// Backend is the durable boundary of the shortlist: one key holding the
// serialized list. Implementations overwrite the value wholesale.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// MemoryBackend keeps the serialized shortlist in process memory.
type MemoryBackend struct {
	mu     sync.Mutex
	data   []byte
	writes int
	err    error
}

// NewMemoryBackend returns a backend preloaded with data (nil means empty).
func NewMemoryBackend(data []byte) *MemoryBackend {
	return &MemoryBackend{data: data}
}

func (b *MemoryBackend) Read(_ context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.data == nil {
		return nil, ErrNotFound
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

func (b *MemoryBackend) Write(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return b.err
	}
	b.data = append([]byte(nil), data...)
	b.writes++
	return nil
}

// Writes returns how many successful writes were made.
func (b *MemoryBackend) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// FailWrites makes subsequent writes return err (nil restores normal behavior).
func (b *MemoryBackend) FailWrites(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}
