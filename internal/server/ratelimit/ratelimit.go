// Package ratelimit provides per-client request limiting using the token
// bucket algorithm.
package ratelimit

import (
	"sync"
	"time"
)

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	// Limit is the steady-state requests per Window.
	Limit  int
	Window time.Duration
	// Unlimited lists path prefixes exempt from limiting.
	Unlimited []string
	// CleanupInterval controls how often idle buckets are dropped.
	CleanupInterval time.Duration
}

// DefaultConfig returns the limiter settings used when nothing is tuned.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Limit:           120,
		Window:          time.Minute,
		Unlimited:       []string{"/health"},
		CleanupInterval: 5 * time.Minute,
	}
}

// Info reports the limit state returned alongside each decision.
type Info struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time
}

// Limiter tracks a token bucket per client.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cfg     *Config

	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
}

// NewLimiter creates a limiter and starts its idle-bucket cleanup.
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		cfg:     cfg,
	}
	if cfg.Enabled && cfg.CleanupInterval > 0 {
		l.cleanupTicker = time.NewTicker(cfg.CleanupInterval)
		l.cleanupStop = make(chan struct{})
		go l.cleanupLoop()
	}
	return l
}

// Allow reports whether a request from clientID to path may proceed.
func (l *Limiter) Allow(clientID, path string) (bool, Info) {
	if !l.cfg.Enabled {
		return true, Info{}
	}
	for _, prefix := range l.cfg.Unlimited {
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			return true, Info{}
		}
	}

	refillRate := float64(l.cfg.Limit) / l.cfg.Window.Seconds()
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[clientID]
	if !ok {
		b = &bucket{tokens: float64(l.cfg.Limit), lastRefill: now}
		l.buckets[clientID] = b
	}

	b.tokens = min(float64(l.cfg.Limit), b.tokens+now.Sub(b.lastRefill).Seconds()*refillRate)
	b.lastRefill = now
	b.lastAccess = now

	info := Info{Limit: l.cfg.Limit}
	if b.tokens >= 1.0 {
		b.tokens--
		info.Remaining = int(b.tokens)
		return true, info
	}

	info.RetryAfter = time.Duration((1.0 - b.tokens) / refillRate * float64(time.Second))
	return false, info
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	if l.cleanupTicker != nil {
		l.cleanupTicker.Stop()
	}
	if l.cleanupStop != nil {
		close(l.cleanupStop)
		l.cleanupStop = nil
	}
}

func (l *Limiter) cleanupLoop() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.dropIdle()
		case <-l.cleanupStop:
			return
		}
	}
}

// dropIdle removes buckets untouched for over an hour.
func (l *Limiter) dropIdle() {
	cutoff := time.Now().Add(-time.Hour)
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, b := range l.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(l.buckets, id)
		}
	}
}
