package loginstate

import (
	"context"
	"sync"
	"time"
)

// Repository stores outstanding OAuth state nonces. A nonce is one-shot:
// Take reports whether it existed and removes it in the same operation.
type Repository interface {
	Put(ctx context.Context, state string, ttl time.Duration) error
	Take(ctx context.Context, state string) (bool, error)
}

// MemoryRepository implements Repository in process memory. Used when Redis is
// not configured (single-instance deployments and tests).
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: map[string]time.Time{}}
}

func (r *MemoryRepository) Put(ctx context.Context, state string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[state] = time.Now().UTC().Add(ttl)
	return nil
}

func (r *MemoryRepository) Take(ctx context.Context, state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.entries[state]
	if !ok {
		return false, nil
	}
	delete(r.entries, state)
	if time.Now().UTC().After(exp) {
		return false, nil
	}
	return true, nil
}
