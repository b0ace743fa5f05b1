package amqp

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures = 5
	openTimeout = 30 * time.Second
	maxBackoff  = 30 * time.Second
)

// breaker stops publishing after repeated failures so a broker outage does
// not stall every request for the full publish timeout.
type breaker struct {
	state        int32
	failureCount int64

	mu          sync.Mutex
	lastFailure time.Time
}

func (b *breaker) isOpen() bool {
	if atomic.LoadInt32(&b.state) != StateOpen {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if time.Since(b.lastFailure) > openTimeout {
		atomic.StoreInt32(&b.state, StateHalfOpen)
		return false
	}
	return true
}

func (b *breaker) recordSuccess() {
	atomic.StoreInt64(&b.failureCount, 0)
	atomic.StoreInt32(&b.state, StateClosed)
}

func (b *breaker) recordFailure() {
	n := atomic.AddInt64(&b.failureCount, 1)
	b.mu.Lock()
	b.lastFailure = time.Now()
	b.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&b.state) == StateHalfOpen {
		atomic.StoreInt32(&b.state, StateOpen)
	}
}

// exponentialBackoff returns 1s, 2s, 4s ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// isConnectionError reports errors worth redialing for.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
