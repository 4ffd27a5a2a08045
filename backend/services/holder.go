// ABOUTME: Lazily initialised, resettable holder for external API clients
// ABOUTME: Concurrent first callers share a single construction

package services

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Holder builds a client on first use and keeps it until Reset
type Holder[T any] struct {
	build func(ctx context.Context) (T, error)

	mu     sync.RWMutex
	client T
	ready  bool
	group  singleflight.Group
}

// NewHolder creates a holder around build
func NewHolder[T any](build func(ctx context.Context) (T, error)) *Holder[T] {
	return &Holder[T]{build: build}
}

// EnsureInitialized returns the client, building it if needed. Build errors
// are returned to every waiting caller and nothing is cached.
func (h *Holder[T]) EnsureInitialized(ctx context.Context) (T, error) {
	h.mu.RLock()
	if h.ready {
		c := h.client
		h.mu.RUnlock()
		return c, nil
	}
	h.mu.RUnlock()

	v, err, _ := h.group.Do("build", func() (interface{}, error) {
		h.mu.RLock()
		if h.ready {
			c := h.client
			h.mu.RUnlock()
			return c, nil
		}
		h.mu.RUnlock()

		c, err := h.build(ctx)
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		h.client = c
		h.ready = true
		h.mu.Unlock()
		return c, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	c, _ := v.(T)
	return c, nil
}

// Reset drops the client so the next call re-reads credentials
func (h *Holder[T]) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	var zero T
	h.client = zero
	h.ready = false
}
