// Package sync_pool is a typed sync.Pool.
package sync_pool

import "sync"

// SyncPool hands out values of type T, resetting each one before use.
type SyncPool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

// New creates a pool that makes values with init and prepares them with reset.
// reset may be nil.
func New[T any](init func() T, reset func(T)) *SyncPool[T] {
	return &SyncPool[T]{
		pool:  sync.Pool{New: func() any { return init() }},
		reset: reset,
	}
}

// Get takes a reset value from the pool.
func (p *SyncPool[T]) Get() T {
	val := p.pool.Get().(T)
	if p.reset != nil {
		p.reset(val)
	}
	return val
}

// Put gives a value back. It must not be used afterwards.
func (p *SyncPool[T]) Put(val T) {
	p.pool.Put(val)
}
