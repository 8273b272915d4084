package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(config *Config) (*Limiter, *fakeClock) {
	clock := newFakeClock()
	l := NewLimiter(config)
	l.now = clock.Now
	return l, clock
}

func TestBucket_Take(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBucket(&EndpointConfig{Limit: 10, Window: 10 * time.Second}) // one token per second

	for i := 0; i < 10; i++ {
		info := b.take(now)
		require.True(t, info.Allowed, "request %d", i+1)
		assert.Equal(t, 9-i, info.Remaining)
		assert.Equal(t, 10, info.Limit)
	}

	info := b.take(now)
	assert.False(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, now.Add(10*time.Second), info.ResetTime)
	assert.Equal(t, time.Second, info.RetryAfter)
}

func TestBucket_Refill(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBucket(&EndpointConfig{Limit: 10, Window: 10 * time.Second})
	for i := 0; i < 10; i++ {
		b.take(now)
	}

	assert.True(t, b.take(now.Add(1100*time.Millisecond)).Allowed, "one token should have refilled")
	assert.False(t, b.take(now.Add(1200*time.Millisecond)).Allowed)
}

func TestBucket_BurstCapsRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBucket(&EndpointConfig{Limit: 60, Window: time.Minute, Burst: 3})
	b.take(now)

	info := b.take(now.Add(time.Hour))
	assert.Equal(t, 2, info.Remaining, "bucket never exceeds its burst")
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Positive(t, info.RetryAfter)
}

func TestLimiter_WhitelistAndBlacklist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/match", "POST")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}

	allowed, _ := limiter.Allow("192.168.1.1", "/health", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{Enabled: false})

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/match", "POST")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}
	assert.Equal(t, 0, limiter.Len())
}

func TestLimiter_MatchEndpointLimits(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: MatchEndpointConfigs(EndpointConfig{Limit: 6, Window: time.Minute, Burst: 3}),
	})

	for i := 0; i < 3; i++ {
		allowed, info := limiter.Allow("10.0.0.1", "/api/match", "POST")
		require.True(t, allowed, "burst request %d", i+1)
		assert.Equal(t, 6, info.Limit)
	}
	allowed, _ := limiter.Allow("10.0.0.1", "/api/match", "POST")
	assert.False(t, allowed, "burst exhausted")

	// 6 per minute refills one token every 10 seconds
	clock.Advance(10 * time.Second)
	allowed, _ = limiter.Allow("10.0.0.1", "/api/match", "POST")
	assert.True(t, allowed)

	// Other routes use the default limit
	allowed, info := limiter.Allow("10.0.0.1", "/other", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)

	// Other clients have their own buckets
	allowed, _ = limiter.Allow("10.0.0.2", "/api/match", "POST")
	assert.True(t, allowed)
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})

	for i := 0; i < 50; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET")
		require.True(t, allowed)
		allowed, _ = limiter.Allow("127.0.0.1", "/api/health", "GET")
		require.True(t, allowed)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
	})

	var wg sync.WaitGroup
	var allowedCount atomic.Int32
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/test", "GET"); allowed {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(100), allowedCount.Load())
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
	}
	clock.Advance(30 * time.Minute)
	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
	}
	clock.Advance(45 * time.Minute)

	assert.Equal(t, 5, limiter.cleanupBuckets())
	assert.Equal(t, 5, limiter.Len())
}

func TestLimiter_RunStopsOnCancel(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- limiter.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter, _ := newTestLimiter(nil)

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)

	_, info = limiter.Allow("127.0.0.1", "/match", "POST")
	assert.Equal(t, 60, info.Limit)
}

func TestLoadConfigFrom(t *testing.T) {
	env := map[string]string{
		"RATE_LIMIT_MATCH_LIMIT":   "5",
		"RATE_LIMIT_MATCH_WINDOW":  "10s",
		"RATE_LIMIT_WHITELIST":     " 10.0.0.1, ,10.0.0.2",
		"RATE_LIMIT_DEFAULT_LIMIT": "not-a-number",
	}
	cfg := LoadConfigFrom(func(k string) string { return env[k] })

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1000, cfg.DefaultLimit)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Whitelist)
	require.Len(t, cfg.EndpointConfigs, 2)
	for _, ec := range cfg.EndpointConfigs {
		assert.Equal(t, 5, ec.Limit)
		assert.Equal(t, 10*time.Second, ec.Window)
		assert.Equal(t, "POST", ec.Method)
	}

	disabled := LoadConfigFrom(func(k string) string {
		if k == "RATE_LIMIT_ENABLED" {
			return "false"
		}
		return ""
	})
	assert.False(t, disabled.Enabled)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/match", Method: "POST", Limit: 1},
		{Path: "/reports/", Method: "GET", Limit: 2},
	}

	assert.Equal(t, 1, MatchEndpoint("/match", "POST", configs).Limit)
	assert.Equal(t, 2, MatchEndpoint("/reports/abc", "GET", configs).Limit)
	assert.Nil(t, MatchEndpoint("/match", "GET", configs))
	assert.Equal(t, 0, MatchEndpoint("/health", "GET", configs).Limit)
}
