package wavpack

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool_Env(t *testing.T) {
	t.Setenv(MaxWorkersEnv, "7")
	assert.Equal(t, 7, NewPool().MaxWorkers())

	t.Setenv(MaxWorkersEnv, "zero")
	assert.Equal(t, defaultMaxWorkers, NewPool().MaxWorkers())
}

func TestNewPoolWithLimit_NonPositive(t *testing.T) {
	assert.Equal(t, defaultMaxWorkers, NewPoolWithLimit(0).MaxWorkers())
	assert.Equal(t, defaultMaxWorkers, NewPoolWithLimit(-3).MaxWorkers())
}

func TestPool_AcquireRelease(t *testing.T) {
	p := NewPoolWithLimit(2)
	ctx := context.Background()

	require.NoError(t, p.Acquire(ctx))
	require.NoError(t, p.Acquire(ctx))
	assert.Equal(t, 2, p.ActiveWorkers())
	assert.Equal(t, 0, p.AvailableSlots())

	timeout, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Acquire(timeout), context.DeadlineExceeded)
	assert.Equal(t, 2, p.ActiveWorkers(), "a cancelled wait holds no slot")

	p.Release()
	assert.Equal(t, 1, p.AvailableSlots())
	p.Release()
	assert.Equal(t, 0, p.ActiveWorkers())
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const limit = 3
	p := NewPoolWithLimit(limit)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.do(context.Background(), func() error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(limit))
	assert.Equal(t, 0, p.ActiveWorkers())
}

func TestPool_NilRunsDirectly(t *testing.T) {
	var p *Pool
	called := false
	require.NoError(t, p.do(context.Background(), func() error {
		called = true
		return nil
	}))
	assert.True(t, called)
}
