package transport

import "time"

const (
	DefaultBaseDelay   = 1000 * time.Millisecond
	DefaultMaxDelay    = 10000 * time.Millisecond
	DefaultMaxAttempts = 3
)

// backoffDelay returns min(base * 2^attempt, max).
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := base
	for range attempt {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
