package ratelimit

import (
	"sync"
	"time"
)

// UnknownIdentity is used when the transport layer could not supply a caller
// identity. Requests without an identity share one counter instead of
// failing the endpoint.
const UnknownIdentity = "unknown"

// counter is the admission state for one caller identity. A counter is
// created on the identity's first request and kept for the process lifetime.
type counter struct {
	windowStart time.Time
	count       int
}

// Limiter admits or denies requests per caller identity using a fixed
// window. Counters for different identities never block each other beyond
// the map lookup; the guarantee is abuse dampening, not exact accounting.
type Limiter struct {
	window  time.Duration
	ceiling int
	now     func() time.Time

	mu       sync.Mutex
	counters map[string]*counter
}

// New returns a Limiter with the given window and per-window ceiling.
func New(window time.Duration, ceiling int) *Limiter {
	return &Limiter{
		window:   window,
		ceiling:  ceiling,
		now:      time.Now,
		counters: make(map[string]*counter),
	}
}

// Admit decides whether a request from identity may be processed. The first
// request in a window is always admitted; once the ceiling is reached,
// further requests are denied until the window expires. An empty identity
// maps to UnknownIdentity.
func (l *Limiter) Admit(identity string) bool {
	if identity == "" {
		identity = UnknownIdentity
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[identity]
	if !ok {
		l.counters[identity] = &counter{windowStart: now, count: 1}
		return true
	}
	if now.Sub(c.windowStart) > l.window {
		c.windowStart = now
		c.count = 1
		return true
	}
	if c.count < l.ceiling {
		c.count++
		return true
	}
	return false
}

// Count returns the current admitted count for an identity. Zero if the
// identity has never been seen.
func (l *Limiter) Count(identity string) int {
	if identity == "" {
		identity = UnknownIdentity
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.counters[identity]; ok {
		return c.count
	}
	return 0
}
