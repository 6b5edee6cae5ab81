package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallbiznis/eventtria/internal/clock"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiresEntries(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, int](WithNow(clk.Now))

	c.Set("a", 1, 5*time.Second)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clk.Advance(4 * time.Second)
	_, ok = c.Get("a")
	assert.True(t, ok)

	clk.Advance(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry must expire at its deadline")
}

func TestTTLCacheIgnoresNonPositiveTTL(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, 0)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheSweepsExpiredEntriesOnWrite(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, int](WithNow(clk.Now)).(*ttlCache[string, int])

	for i := 0; i < 10000; i++ {
		c.Set(fmt.Sprintf("token-%d", i), i, 5*time.Second)
	}
	c.Set("long-lived", 1, 2*time.Hour)
	require.Len(t, c.entries, 10001)

	clk.Advance(time.Hour)
	c.Set("fresh", 2, 5*time.Second)

	assert.Len(t, c.entries, 2)
	_, ok := c.Get("long-lived")
	assert.True(t, ok)
	_, ok = c.Get("fresh")
	assert.True(t, ok)
}

func TestTTLCacheSweepWaitsForInterval(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, int](WithNow(clk.Now), WithSweepInterval(10*time.Second)).(*ttlCache[string, int])

	c.Set("a", 1, time.Second)
	clk.Advance(2 * time.Second)
	c.Set("b", 2, time.Minute)
	assert.Len(t, c.entries, 2, "no sweep before the interval elapses")

	clk.Advance(8 * time.Second)
	c.Set("c", 3, time.Minute)
	assert.Len(t, c.entries, 2)
	_, ok := c.entries["a"]
	assert.False(t, ok)
}

func TestLoaderFetchesOncePerTTL(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	loader := NewLoader(NewTTLCache[string, string](WithNow(clk.Now)), 5*time.Second)

	var calls int32
	fetch := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "user-1", nil
	}

	for i := 0; i < 3; i++ {
		v, err := loader.Get(context.Background(), "token", fetch)
		require.NoError(t, err)
		assert.Equal(t, "user-1", v)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	clk.Advance(5 * time.Second)
	_, err := loader.Get(context.Background(), "token", fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestLoaderDoesNotCacheErrors(t *testing.T) {
	loader := NewLoader(NewTTLCache[string, string](), time.Minute)
	boom := errors.New("auth backend down")

	_, err := loader.Get(context.Background(), "k", func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)

	v, err := loader.Get(context.Background(), "k", func(context.Context) (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestLoaderSharesConcurrentFetch(t *testing.T) {
	loader := NewLoader(NewTTLCache[string, int](), time.Minute)

	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := loader.Get(context.Background(), "same", fetch)
			if err == nil {
				results <- v
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for v := range results {
		assert.Equal(t, 42, v)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(workers))
	_, err := loader.Get(context.Background(), "same", fetch)
	require.NoError(t, err)
}

func TestResolverCacheSkipsZeroIDs(t *testing.T) {
	c := NewResolverCache(0)
	c.SetPlan("1", plandomain.SubscriptionPlan{})
	_, ok := c.GetPlan("1")
	assert.False(t, ok)

	c.SetPlanByName(" Free ", plandomain.SubscriptionPlan{ID: 7, Name: "Free"})
	plan, ok := c.GetPlanByName("free")
	require.True(t, ok)
	assert.EqualValues(t, 7, plan.ID)
}
