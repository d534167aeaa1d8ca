package signal

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/peercall/internal/domain"
)

// InviteRateLimiter caps how many invites one identity may send per window.
type InviteRateLimiter struct {
	mu       sync.Mutex
	clock    clock.Clock
	history  map[domain.UserIdentity][]time.Time
	limit    int
	interval time.Duration
}

func NewInviteRateLimiter(clk clock.Clock, limit int, interval time.Duration) *InviteRateLimiter {
	if clk == nil {
		clk = clock.New()
	}
	return &InviteRateLimiter{
		clock:    clk,
		history:  make(map[domain.UserIdentity][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *InviteRateLimiter) Allow(id domain.UserIdentity) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[id]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		rl.history[id] = fresh
		return false
	}
	rl.history[id] = append(fresh, now)
	return true
}
