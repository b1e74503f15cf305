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
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Credential is an API key handed out by the pool. Index identifies the key
// for the lifetime of the pool; Secret is the opaque key material.
type Credential struct {
	Index  int
	Secret string
}

// Pool tracks eligibility state for a fixed set of API keys.
//
// Implementations of downstream callers should treat the pool as the single
// shared mutable resource: all cooldown, counter, and current-index state is
// guarded by one mutex.
type Pool struct {
	mu            sync.Mutex
	secrets       []string
	current       int
	cooldownUntil []time.Time
	requestCount  []int64

	// Injectable for deterministic tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewPool creates a pool from the given secrets. Empty and all-blank entries
// are filtered out; their indices are not preserved. Returns
// ErrNoCredentials if nothing usable remains.
func NewPool(secrets []string) (*Pool, error) {
	valid := make([]string, 0, len(secrets))
	for i, s := range secrets {
		if strings.TrimSpace(s) == "" {
			slog.Warn("Skipping blank credential", "position", i+1)
			continue
		}
		valid = append(valid, s)
	}

	if len(valid) == 0 {
		return nil, ErrNoCredentials
	}

	p := &Pool{
		secrets:       valid,
		cooldownUntil: make([]time.Time, len(valid)),
		requestCount:  make([]int64, len(valid)),
		now:           time.Now,
		sleep:         time.Sleep,
	}

	slog.Info("Credential pool initialized", "keys", len(valid))
	return p, nil
}

// Size returns the number of keys in the pool.
func (p *Pool) Size() int {
	return len(p.secrets)
}

// Acquire returns the current credential, rotating away from it if it is on
// cooldown. When every key is cooling down, Acquire blocks until the
// earliest cooldown expires, then returns that key. Each successful
// acquisition increments the key's request counter.
func (p *Pool) Acquire() Credential {
	for {
		p.mu.Lock()
		now := p.now()

		if now.Before(p.cooldownUntil[p.current]) {
			if idx, ok := p.rotateLocked(now); ok {
				slog.Debug("Current key on cooldown, rotated", "key", idx+1)
			} else {
				idx, wait := p.earliestLocked(now)
				p.current = idx
				p.mu.Unlock()
				slog.Warn("All keys on cooldown, waiting for next available key",
					"key", idx+1, "wait", wait)
				if wait > 0 {
					p.sleep(wait)
				}
				// Re-check under the lock: a concurrent MarkRateLimited may
				// have cooled this key down again while we slept.
				continue
			}
		}

		cred := Credential{Index: p.current, Secret: p.secrets[p.current]}
		p.requestCount[p.current]++
		p.mu.Unlock()
		return cred
	}
}

// Rotate advances current to the nearest eligible key strictly after it in
// round-robin order. Returns false when a full cycle finds no eligible key;
// a single-key pool can never rotate.
func (p *Pool) Rotate() (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.rotateLocked(p.now())
	if !ok {
		return Credential{}, false
	}
	return Credential{Index: idx, Secret: p.secrets[idx]}, true
}

// MarkRateLimited puts the current key on cooldown for the given duration
// and rotates. Returns the next eligible credential, or false when every key
// is now cooling down. This is the only way cooldowns are set.
func (p *Pool) MarkRateLimited(cooldown time.Duration) (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	until := now.Add(cooldown)
	// Cooldowns only ever move forward.
	if until.After(p.cooldownUntil[p.current]) {
		p.cooldownUntil[p.current] = until
	}

	slog.Warn("Key hit rate limit",
		"key", p.current+1,
		"cooldown", cooldown,
		"requests", p.requestCount[p.current])

	idx, ok := p.rotateLocked(now)
	if !ok {
		slog.Error("All keys are rate limited")
		return Credential{}, false
	}

	slog.Info("Switched to next key", "key", idx+1)
	return Credential{Index: idx, Secret: p.secrets[idx]}, true
}

// Reset clears every cooldown and counter and sets current back to the
// first key.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.secrets {
		p.cooldownUntil[i] = time.Time{}
		p.requestCount[i] = 0
	}
	p.current = 0

	slog.Info("Credential pool reset")
}

// rotateLocked scans (current+1)..(current+N-1) mod N for the first key
// whose cooldown has elapsed and makes it current. The caller must hold the
// lock.
func (p *Pool) rotateLocked(now time.Time) (int, bool) {
	n := len(p.secrets)
	for i := 1; i < n; i++ {
		idx := (p.current + i) % n
		if !now.Before(p.cooldownUntil[idx]) {
			p.current = idx
			return idx, true
		}
	}
	return 0, false
}

// earliestLocked returns the index with the smallest remaining cooldown and
// how long until it elapses. The caller must hold the lock.
func (p *Pool) earliestLocked(now time.Time) (int, time.Duration) {
	best := 0
	bestWait := p.cooldownUntil[0].Sub(now)
	for i := 1; i < len(p.secrets); i++ {
		if wait := p.cooldownUntil[i].Sub(now); wait < bestWait {
			best = i
			bestWait = wait
		}
	}
	if bestWait < 0 {
		bestWait = 0
	}
	return best, bestWait
}
