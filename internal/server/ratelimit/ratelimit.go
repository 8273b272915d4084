// Package ratelimit throttles screening requests per client with token buckets.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// IdleTTL is how long an unused bucket is kept before cleanup removes it.
const IdleTTL = time.Hour

// Info describes the bucket state after a request.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// bucket is one client's allowance on one route.
type bucket struct {
	lim        *rate.Limiter
	limit      int
	lastAccess atomic.Int64 // unix nanoseconds
}

func newBucket(cfg *EndpointConfig) *bucket {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.Limit
	}
	every := rate.Limit(float64(cfg.Limit) / window.Seconds())
	return &bucket{lim: rate.NewLimiter(every, burst), limit: cfg.Limit}
}

// take spends one token at now if one is available.
func (b *bucket) take(now time.Time) Info {
	b.lastAccess.Store(now.UnixNano())
	allowed := b.lim.AllowN(now, 1)
	tokens := max(0, b.lim.TokensAt(now))
	every := float64(b.lim.Limit())

	info := Info{Allowed: allowed, Limit: b.limit, Remaining: int(tokens), ResetTime: now}
	if missing := float64(b.lim.Burst()) - tokens; missing > 0 && every > 0 {
		info.ResetTime = now.Add(seconds(missing / every))
	}
	if !allowed && every > 0 {
		info.RetryAfter = seconds((1 - tokens) / every)
	}
	return info
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Limiter keeps one bucket per client, route and method.
type Limiter struct {
	config  *Config
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewLimiter creates a limiter. A nil config enables the built-in limits.
// Idle buckets are only reclaimed while Run is active.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
			EndpointConfigs: DefaultEndpointConfigs(),
		}
	}
	return &Limiter{config: config, now: time.Now, buckets: make(map[string]*bucket)}
}

// Allow spends a token for clientID on endpoint and reports whether the request may proceed.
func (l *Limiter) Allow(clientID, endpoint, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{}
	}

	cfg := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if cfg == nil {
		cfg = &EndpointConfig{Limit: l.config.DefaultLimit, Window: l.config.DefaultWindow}
	}
	if cfg.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	info := l.bucketFor(clientID+"|"+method+" "+endpoint, cfg).take(l.now())
	return info.Allowed, info
}

func (l *Limiter) bucketFor(key string, cfg *EndpointConfig) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = newBucket(cfg)
		l.buckets[key] = b
	}
	return b
}

// Run removes idle buckets every CleanupInterval until ctx is done. It always returns nil.
func (l *Limiter) Run(ctx context.Context) error {
	if !l.config.Enabled || l.config.CleanupInterval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.cleanupBuckets()
		}
	}
}

// cleanupBuckets drops buckets unused for IdleTTL and returns how many it removed.
func (l *Limiter) cleanupBuckets() int {
	cutoff := l.now().Add(-IdleTTL).UnixNano()

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, b := range l.buckets {
		if b.lastAccess.Load() < cutoff {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
