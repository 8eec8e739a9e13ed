package app

import (
	"sync"
	"time"

	"github.com/krether/huddle/internal/domain"
)

// Limiter caps how many inbound frames a participant may submit per
// sliding window. Over-limit frames are dropped by the caller; they
// are not protocol violations.
type Limiter struct {
	mu       sync.Mutex
	history  map[domain.ParticipantID][]time.Time
	limit    int
	interval time.Duration
}

func NewLimiter(limit int, interval time.Duration) *Limiter {
	return &Limiter{
		history:  make(map[domain.ParticipantID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

// Allow records one attempt and reports whether it fits the window.
// A non-positive limit disables limiting.
func (l *Limiter) Allow(p domain.ParticipantID) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-l.interval)

	attempts := l.history[p]
	fresh := make([]time.Time, 0, len(attempts))
	for _, ts := range attempts {
		if ts.After(windowStart) {
			fresh = append(fresh, ts)
		}
	}

	if len(fresh) >= l.limit {
		l.history[p] = fresh
		return false
	}

	l.history[p] = append(fresh, now)
	return true
}

// Forget drops a participant's window. Called when their connection
// goes away so idle history does not accumulate.
func (l *Limiter) Forget(p domain.ParticipantID) {
	l.mu.Lock()
	delete(l.history, p)
	l.mu.Unlock()
}
