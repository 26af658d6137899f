package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory keeps one token bucket per key. A bucket holds max tokens and refills
// at max per window, so a client can spend its whole allowance at once.
type Memory struct {
	max   int
	every rate.Limit

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewMemory allows max requests per window for each key.
func NewMemory(max int, window time.Duration) *Memory {
	return &Memory{
		max:     max,
		every:   rate.Limit(float64(max) / window.Seconds()),
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (m *Memory) Check(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(m.every, m.max)}
		m.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1), nil
}

// Sweep drops buckets unused for longer than idle and returns how many were
// dropped.
func (m *Memory) Sweep(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-idle)
	n := 0
	for key, b := range m.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(m.buckets, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}
