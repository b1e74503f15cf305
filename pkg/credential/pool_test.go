// Copyright 2025 The Doclens Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package credential

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for deterministic cooldown tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// newTestPool builds a pool on a fake clock whose sleep advances the clock
// instead of blocking.
func newTestPool(t *testing.T, secrets ...string) (*Pool, *fakeClock) {
	t.Helper()

	p, err := NewPool(secrets)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	clock := newFakeClock()
	p.now = clock.Now
	p.sleep = clock.Advance
	return p, clock
}

func TestNewPool(t *testing.T) {
	p, err := NewPool([]string{"key-a", "key-b", "key-c"})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	if got := p.Size(); got != 3 {
		t.Errorf("Size() = %d, want 3", got)
	}
}

func TestNewPoolFiltersBlankEntries(t *testing.T) {
	p, err := NewPool([]string{"", "key-a", "   ", "key-b", "\t"})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	if got := p.Size(); got != 2 {
		t.Errorf("Size() = %d, want 2", got)
	}

	cred := p.Acquire()
	if cred.Secret != "key-a" {
		t.Errorf("Acquire().Secret = %q, want %q", cred.Secret, "key-a")
	}
}

func TestNewPoolNoUsableCredentials(t *testing.T) {
	tests := []struct {
		name    string
		secrets []string
	}{
		{"empty slice", nil},
		{"all blank", []string{"", "  ", "\t\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPool(tt.secrets)
			if !errors.Is(err, ErrNoCredentials) {
				t.Errorf("NewPool() error = %v, want ErrNoCredentials", err)
			}
		})
	}
}

func TestAcquireCountsRequests(t *testing.T) {
	p, _ := newTestPool(t, "key-a", "key-b")

	for i := 0; i < 3; i++ {
		cred := p.Acquire()
		if cred.Index != 0 {
			t.Fatalf("Acquire().Index = %d, want 0", cred.Index)
		}
	}

	stats := p.Stats()
	if stats.RequestCounts[0] != 3 {
		t.Errorf("RequestCounts[0] = %d, want 3", stats.RequestCounts[0])
	}
	if stats.RequestCounts[1] != 0 {
		t.Errorf("RequestCounts[1] = %d, want 0", stats.RequestCounts[1])
	}
}

func TestRotateSingleKey(t *testing.T) {
	p, _ := newTestPool(t, "only-key")

	if _, ok := p.Rotate(); ok {
		t.Error("Rotate() on a single-key pool = true, want false")
	}
}

func TestRotateSkipsCoolingKeys(t *testing.T) {
	p, _ := newTestPool(t, "key-a", "key-b", "key-c")

	// Put key 2 (index 1) on cooldown so rotation from key 1 lands on key 3.
	p.mu.Lock()
	p.cooldownUntil[1] = p.now().Add(time.Minute)
	p.mu.Unlock()

	cred, ok := p.Rotate()
	if !ok {
		t.Fatal("Rotate() = false, want true")
	}
	if cred.Index != 2 {
		t.Errorf("Rotate().Index = %d, want 2", cred.Index)
	}
}

func TestMarkRateLimitedRotates(t *testing.T) {
	p, clock := newTestPool(t, "key-a", "key-b")

	p.Acquire()
	cred, ok := p.MarkRateLimited(time.Minute)
	if !ok {
		t.Fatal("MarkRateLimited() = false, want true")
	}
	if cred.Index != 1 {
		t.Errorf("MarkRateLimited().Index = %d, want 1", cred.Index)
	}

	// Key 1 stays unavailable until its cooldown elapses.
	clock.Advance(59 * time.Second)
	if _, ok := p.Rotate(); ok {
		t.Error("Rotate() = true before cooldown elapsed, want false")
	}

	clock.Advance(time.Second)
	cred, ok = p.Rotate()
	if !ok {
		t.Fatal("Rotate() = false after cooldown elapsed, want true")
	}
	if cred.Index != 0 {
		t.Errorf("Rotate().Index = %d, want 0", cred.Index)
	}
}

func TestMarkRateLimitedAllCooling(t *testing.T) {
	p, _ := newTestPool(t, "key-a", "key-b")

	if _, ok := p.MarkRateLimited(time.Minute); !ok {
		t.Fatal("first MarkRateLimited() = false, want true")
	}
	if _, ok := p.MarkRateLimited(time.Minute); ok {
		t.Error("second MarkRateLimited() = true, want false when all keys cool")
	}
}

func TestMarkRateLimitedCooldownOnlyExtends(t *testing.T) {
	p, clock := newTestPool(t, "key-a", "key-b")

	p.MarkRateLimited(time.Minute)

	// Rotate back onto key 1's slot is impossible, so force current back and
	// apply a shorter cooldown; the original deadline must win.
	p.mu.Lock()
	p.current = 0
	p.mu.Unlock()
	p.MarkRateLimited(time.Second)

	clock.Advance(2 * time.Second)
	if _, ok := p.Rotate(); ok {
		t.Error("Rotate() = true, want false while the longer cooldown holds")
	}
}

func TestAcquireBlocksUntilEarliestCooldown(t *testing.T) {
	p, clock := newTestPool(t, "key-a", "key-b")

	p.MarkRateLimited(30 * time.Second)
	p.MarkRateLimited(10 * time.Second)

	start := clock.Now()
	cred := p.Acquire()

	// Key 2 had the shorter cooldown; the fake sleep advanced the clock to
	// exactly its expiry.
	if cred.Index != 1 {
		t.Errorf("Acquire().Index = %d, want 1", cred.Index)
	}
	if waited := clock.Now().Sub(start); waited != 10*time.Second {
		t.Errorf("Acquire() waited %v, want 10s", waited)
	}
}

func TestReset(t *testing.T) {
	p, _ := newTestPool(t, "key-a", "key-b")

	p.Acquire()
	p.MarkRateLimited(time.Minute)
	p.Acquire()
	p.Reset()

	stats := p.Stats()
	if stats.CurrentKey != 1 {
		t.Errorf("CurrentKey = %d after Reset, want 1", stats.CurrentKey)
	}
	for i, n := range stats.RequestCounts {
		if n != 0 {
			t.Errorf("RequestCounts[%d] = %d after Reset, want 0", i, n)
		}
	}
	for i, d := range stats.CooldownRemaining {
		if d != 0 {
			t.Errorf("CooldownRemaining[%d] = %v after Reset, want 0", i, d)
		}
	}
}

func TestStatsSnapshot(t *testing.T) {
	p, _ := newTestPool(t, "key-a", "key-b", "key-c")

	p.Acquire()
	p.Acquire()
	p.MarkRateLimited(time.Minute)

	stats := p.Stats()
	if stats.TotalKeys != 3 {
		t.Errorf("TotalKeys = %d, want 3", stats.TotalKeys)
	}
	if stats.CurrentKey != 2 {
		t.Errorf("CurrentKey = %d, want 2", stats.CurrentKey)
	}
	if stats.RequestCounts[0] != 2 {
		t.Errorf("RequestCounts[0] = %d, want 2", stats.RequestCounts[0])
	}
	if stats.CooldownRemaining[0] != time.Minute {
		t.Errorf("CooldownRemaining[0] = %v, want 1m", stats.CooldownRemaining[0])
	}
}

func TestCooldownStatus(t *testing.T) {
	p, _ := newTestPool(t, "key-a", "key-b")

	p.MarkRateLimited(90 * time.Second)

	status := p.Stats().CooldownStatus()
	if got := status[1]; got != "Cooldown: 90.0s" {
		t.Errorf("status[1] = %q, want %q", got, "Cooldown: 90.0s")
	}
	if got := status[2]; got != "Available" {
		t.Errorf("status[2] = %q, want %q", got, "Available")
	}
}

func TestMinWait(t *testing.T) {
	p, _ := newTestPool(t, "key-a", "key-b")

	if got := p.Stats().MinWait(); got != 0 {
		t.Errorf("MinWait() = %v with all keys available, want 0", got)
	}

	p.MarkRateLimited(30 * time.Second)
	if got := p.Stats().MinWait(); got != 0 {
		t.Errorf("MinWait() = %v with one key available, want 0", got)
	}

	p.MarkRateLimited(10 * time.Second)
	if got := p.Stats().MinWait(); got != 10*time.Second {
		t.Errorf("MinWait() = %v with all keys cooling, want 10s", got)
	}
}

func TestConcurrentAcquire(t *testing.T) {
	p, err := NewPool([]string{"key-a", "key-b", "key-c"})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}

	const goroutines = 16
	const perGoroutine = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				cred := p.Acquire()
				if cred.Secret == "" {
					t.Error("Acquire() returned empty credential")
					return
				}
				if j%10 == 0 {
					p.MarkRateLimited(time.Millisecond)
				}
			}
		}()
	}
	wg.Wait()

	var total int64
	for _, n := range p.Stats().RequestCounts {
		total += n
	}
	if total != goroutines*perGoroutine {
		t.Errorf("total requests = %d, want %d", total, goroutines*perGoroutine)
	}
}
