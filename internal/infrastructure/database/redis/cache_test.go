package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
)

func TestWeightsCache_GetSet(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewWeightsCache(client, logging.NewNopLogger())
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := []float64{0.5, 0.5, 0.5, -0.5, 0.5, 0.5}
	require.NoError(t, cache.Set(ctx, "k1", want, time.Minute))
	assert.True(t, mr.Exists("test:weights:k1"))

	got, ok, err := cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	ttl := mr.TTL("test:weights:k1")
	assert.InDelta(t, float64(time.Minute), float64(ttl), float64(7*time.Second))

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWeightsCache_CorruptEntryIsMiss(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewWeightsCache(client, logging.NewNopLogger())
	require.NoError(t, mr.Set("test:weights:bad", "not json"))

	_, ok, err := cache.Get(context.Background(), "bad")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestWeightsCache_GetOrCompute(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewWeightsCache(client, logging.NewNopLogger(), WithDefaultTTL(time.Minute))
	ctx := context.Background()

	var calls int32
	compute := func(context.Context) ([]float64, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(20 * time.Millisecond)
		return []float64{1, -1}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, _, err := cache.GetOrCompute(ctx, "shared", 0, compute)
			assert.NoError(t, err)
			assert.Equal(t, []float64{1, -1}, w)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	w, hit, err := cache.GetOrCompute(ctx, "shared", 0, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []float64{1, -1}, w)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWeightsCache_GetOrComputeError(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewWeightsCache(client, logging.NewNopLogger())

	_, _, err := cache.GetOrCompute(context.Background(), "k", 0, func(context.Context) ([]float64, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, mr.Exists("test:weights:k"))
}

func TestWeightsCache_GetOrComputeSurvivesCallerCancel(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewWeightsCache(client, logging.NewNopLogger())

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	compute := func(ctx context.Context) ([]float64, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []float64{0.25, -0.75}, nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, _, err := cache.GetOrCompute(ctxA, "shared", 0, compute)
		errA <- err
	}()
	<-started

	type result struct {
		w   []float64
		err error
	}
	resB := make(chan result, 1)
	go func() {
		w, _, err := cache.GetOrCompute(context.Background(), "shared", 0, compute)
		resB <- result{w, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, []float64{0.25, -0.75}, b.w)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, mr.Exists("test:weights:shared"))
}

func TestWeightsCache_GetOrComputeTimeout(t *testing.T) {
	client, _ := newTestClient(t)
	cache := NewWeightsCache(client, logging.NewNopLogger(), WithComputeTimeout(20*time.Millisecond))

	_, _, err := cache.GetOrCompute(context.Background(), "slow", 0, func(ctx context.Context) ([]float64, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWeightsCache_ComputesWhenRedisIsDown(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewWeightsCache(client, logging.NewNopLogger())
	mr.Close()

	w, hit, err := cache.GetOrCompute(context.Background(), "k", 0, func(context.Context) ([]float64, error) {
		return []float64{0.1}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []float64{0.1}, w)
}

func TestWeightsCache_Purge(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewWeightsCache(client, logging.NewNopLogger())
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, cache.Set(ctx, k, []float64{1}, time.Minute))
	}
	require.NoError(t, mr.Set("test:other", "keep"))

	n, err := cache.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.True(t, mr.Exists("test:other"))
}

//Personal.AI order the ending
