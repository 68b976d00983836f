package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateCapsConcurrency(t *testing.T) {
	gate := NewProviderGate(GateConfig{MaxConcurrent: 2, RequestsPerSec: 1000, Burst: 100}, nil)

	var inFlight, peak int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := gate.Do(context.Background(), func(context.Context) error {
				n := atomic.AddInt64(&inFlight, 1)
				for {
					p := atomic.LoadInt64(&peak)
					if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt64(&inFlight, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2), "excess callers must queue, not run")
}

func TestGateRespectsContextWhileQueued(t *testing.T) {
	gate := NewProviderGate(GateConfig{MaxConcurrent: 1, RequestsPerSec: 1000, Burst: 100}, nil)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = gate.Do(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := gate.Do(ctx, func(context.Context) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	close(release)
}

func TestGateBreakerTripsAndFailsFast(t *testing.T) {
	gate := NewProviderGate(GateConfig{MaxConcurrent: 4, RequestsPerSec: 1000, Burst: 100}, nil)

	boom := errors.New("provider down")
	for i := 0; i < 5; i++ {
		err := gate.Do(context.Background(), func(context.Context) error { return boom })
		require.ErrorIs(t, err, boom)
	}

	called := false
	err := gate.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, IsCircuitOpen(err))
	assert.False(t, called, "open breaker must not reach the provider")
}
