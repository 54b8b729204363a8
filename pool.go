package wavpack

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
)

// MaxWorkersEnv overrides the default pool size of NewPool.
const MaxWorkersEnv = "WAVPACK_MAX_WORKERS"

const defaultMaxWorkers = 500

// Pool bounds the number of wavpack/wvunpack processes running at once
// across every Codec that shares it
type Pool struct {
	maxWorkers int
	semaphore  chan struct{}
	active     int
	mu         sync.Mutex
}

// NewPool sizes the pool from WAVPACK_MAX_WORKERS, falling back to 500
// concurrent wavpack/wvunpack processes when it is unset or not a positive
// integer.
func NewPool() *Pool {
	maxWorkers := defaultMaxWorkers

	if envMax := os.Getenv(MaxWorkersEnv); envMax != "" {
		if parsed, err := strconv.Atoi(envMax); err == nil && parsed > 0 {
			maxWorkers = parsed
		}
	}

	return NewPoolWithLimit(maxWorkers)
}

// NewPoolWithLimit bounds live child processes to maxWorkers. A
// non-positive limit means the default of 500.
func NewPoolWithLimit(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}

	return &Pool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Acquire takes a process slot, waiting until one frees up or ctx is done.
// A cancelled wait returns an error wrapping ctx.Err() and holds no slot.
func (p *Pool) Acquire(ctx context.Context) error {
	select {
	case p.semaphore <- struct{}{}:
		p.mu.Lock()
		p.active++
		p.mu.Unlock()
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pool acquire cancelled: %w", ctx.Err())
	}
}

// Release returns a slot taken by a successful Acquire.
func (p *Pool) Release() {
	p.mu.Lock()
	p.active--
	p.mu.Unlock()
	<-p.semaphore
}

// ActiveWorkers counts slots currently held by running encodes or decodes.
func (p *Pool) ActiveWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// MaxWorkers is the process ceiling the pool was built with.
func (p *Pool) MaxWorkers() int {
	return p.maxWorkers
}

// AvailableSlots is how many more processes may start without waiting.
func (p *Pool) AvailableSlots() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxWorkers - p.active
}

// do runs fn while holding a slot. A nil pool runs fn directly.
func (p *Pool) do(ctx context.Context, fn func() error) error {
	if p == nil {
		return fn()
	}
	if err := p.Acquire(ctx); err != nil {
		return fmt.Errorf("failed to acquire worker slot: %w", err)
	}
	defer p.Release()
	return fn()
}
