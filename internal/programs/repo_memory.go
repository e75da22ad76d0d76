package programs

import (
	"context"
	"sync"
)

// MemoryRepo stores programs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Program
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Program)}
}

// Put inserts or replaces p.
func (r *MemoryRepo) Put(ctx context.Context, p Program) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[p.ID] = p
	return nil
}

// GetByID returns a program by id.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Program, error) {
	if err := ctx.Err(); err != nil {
		return Program{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return Program{}, ErrNotFound
	}
	return p, nil
}
