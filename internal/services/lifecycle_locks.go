package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

var errLockTimeout = errors.New("tiempo de espera del lock agotado")

// PostingLocker serializa las operaciones que comparten posting.
// Lock bloquea hasta obtener el lock o hasta que ctx expire.
type PostingLocker interface {
	Lock(ctx context.Context, postingID string) (unlock func(), err error)
}

// LockRegistry es el PostingLocker en proceso: una entrada por posting, creada al
// primer uso y eliminada cuando nadie la retiene ni la espera.
type LockRegistry struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// NewLockRegistry crea un registro vacío.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{entries: make(map[string]*lockEntry)}
}

func (r *LockRegistry) Lock(ctx context.Context, postingID string) (func(), error) {
	r.mu.Lock()
	entry, ok := r.entries[postingID]
	if !ok {
		entry = &lockEntry{sem: semaphore.NewWeighted(1)}
		r.entries[postingID] = entry
	}
	entry.refs++
	r.mu.Unlock()

	if err := entry.sem.Acquire(ctx, 1); err != nil {
		r.release(postingID, entry)
		return nil, fmt.Errorf("%w: posting %s: %v", errLockTimeout, postingID, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.sem.Release(1)
			r.release(postingID, entry)
		})
	}, nil
}

func (r *LockRegistry) release(postingID string, entry *lockEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(r.entries, postingID)
	}
}

// Len reporta cuántos postings tienen lock vivo.
func (r *LockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
