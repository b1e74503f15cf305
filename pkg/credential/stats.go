package credential

import (
	"fmt"
	"time"
)

// Stats is a read-only snapshot of pool state for observability.
type Stats struct {
	// CurrentKey is the 1-based index of the current key, for display.
	CurrentKey int `json:"current_key"`

	// TotalKeys is the number of keys in the pool.
	TotalKeys int `json:"total_keys"`

	// RequestCounts holds successful acquisitions per key, by index.
	RequestCounts []int64 `json:"requests_per_key"`

	// CooldownRemaining holds the remaining cooldown per key, by index.
	// Zero means the key is available.
	CooldownRemaining []time.Duration `json:"-"`
}

// Stats returns a snapshot of the pool's current state.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	s := Stats{
		CurrentKey:        p.current + 1,
		TotalKeys:         len(p.secrets),
		RequestCounts:     make([]int64, len(p.secrets)),
		CooldownRemaining: make([]time.Duration, len(p.secrets)),
	}
	copy(s.RequestCounts, p.requestCount)

	for i, until := range p.cooldownUntil {
		if remaining := until.Sub(now); remaining > 0 {
			s.CooldownRemaining[i] = remaining
		}
	}

	return s
}

// CooldownStatus renders per-key cooldown state keyed by 1-based key number,
// "Available" or "Cooldown: <seconds>s".
func (s Stats) CooldownStatus() map[int]string {
	status := make(map[int]string, len(s.CooldownRemaining))
	for i, remaining := range s.CooldownRemaining {
		if remaining <= 0 {
			status[i+1] = "Available"
		} else {
			status[i+1] = fmt.Sprintf("Cooldown: %.1fs", remaining.Seconds())
		}
	}
	return status
}

// MinWait returns the smallest remaining cooldown across all keys, zero if
// any key is already available.
func (s Stats) MinWait() time.Duration {
	var min time.Duration
	for i, remaining := range s.CooldownRemaining {
		if remaining <= 0 {
			return 0
		}
		if i == 0 || remaining < min {
			min = remaining
		}
	}
	return min
}
