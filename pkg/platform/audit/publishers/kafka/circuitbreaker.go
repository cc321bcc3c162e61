package kafka

import (
	"sync"
	"time"
)

// circuitBreaker stops the publisher from blocking every request on a broker
// outage. After threshold consecutive failures it opens for cooldown and
// events are rejected immediately.
type circuitBreaker struct {
	mu sync.RWMutex

	threshold int
	cooldown  time.Duration

	failures  int
	openUntil time.Time
	isOpen    bool
}

func newCircuitBreaker(threshold int, cooldown time.Duration) *circuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &circuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
	}
}

// allow returns true if the circuit is closed or its cooldown has elapsed
// (half-open: the next attempt decides).
func (cb *circuitBreaker) allow(now time.Time) bool {
	cb.mu.RLock()
	if !cb.isOpen {
		cb.mu.RUnlock()
		return true
	}
	expired := now.After(cb.openUntil)
	cb.mu.RUnlock()

	if !expired {
		return false
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.isOpen && now.After(cb.openUntil) {
		cb.isOpen = false
		cb.failures = 0
	}
	return !cb.isOpen
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.isOpen = false
}

func (cb *circuitBreaker) recordFailure(now time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	if cb.failures >= cb.threshold {
		cb.isOpen = true
		cb.openUntil = now.Add(cb.cooldown)
	}
}
