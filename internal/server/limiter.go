package server

import (
	"math"
	"sync"
	"time"
)

// inboundLimiter throttles how fast a single connection may publish to its
// room. A bucket of tokens refills continuously at burst-per-interval and
// each accepted message spends one; messages arriving with the bucket
// empty are dropped by the session, mirroring the validator's ignore
// policy.
type inboundLimiter struct {
	mu     sync.Mutex
	tokens float64
	burst  float64
	refill float64 // tokens per second
	last   time.Time
}

func newInboundLimiter(burst int, interval time.Duration) *inboundLimiter {
	if burst <= 0 {
		burst = 1
	}
	if interval <= 0 {
		interval = time.Second
	}

	return &inboundLimiter{
		tokens: float64(burst),
		burst:  float64(burst),
		refill: float64(burst) / interval.Seconds(),
		last:   time.Now(),
	}
}

// allow spends one token, reporting false when the bucket is empty.
func (l *inboundLimiter) allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.tokens = math.Min(l.burst, l.tokens+now.Sub(l.last).Seconds()*l.refill)
	l.last = now

	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}
