// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rate

import (
	"sort"
	"sync"
	"time"
)

// window is the sliding window log of admissions for a single key.
type window struct {
	policy Policy
	mu     sync.Mutex  // serializes check and record
	times  []time.Time // admitted instants, oldest first
	latest time.Time   // newest admitted instant
}

func newWindow(policy Policy) *window {
	capacity := policy.maxRequests
	// large policies grow the log on demand instead of up front
	if capacity > 64 {
		capacity = 64
	}
	return &window{
		policy: policy,
		times:  make([]time.Time, 0, capacity),
	}
}

// clampLocked maps instants behind the newest admission onto it so the log
// stays sorted. Caller must hold the lock.
func (w *window) clampLocked(now time.Time) time.Time {
	if now.Before(w.latest) {
		return w.latest
	}
	return now
}

// expireLocked drops every instant at or before now-window.
// Caller must hold the lock.
func (w *window) expireLocked(now time.Time) {
	cutoff := now.Add(-w.policy.window)
	i := sort.Search(len(w.times), func(i int) bool {
		return w.times[i].After(cutoff)
	})
	if i == 0 {
		return
	}
	if i == len(w.times) {
		w.times = w.times[:0]
		return
	}
	w.times = append(w.times[:0], w.times[i:]...)
}

// tryAdmit records now as an admission and returns true if doing so keeps
// the count within the policy, otherwise it leaves the log untouched.
func (w *window) tryAdmit(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now = w.clampLocked(now)
	w.expireLocked(now)
	if len(w.times) >= w.policy.maxRequests {
		return false
	}
	w.times = append(w.times, now)
	w.latest = now
	return true
}

// remaining returns how many admissions would be granted at now.
func (w *window) remaining(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	now = w.clampLocked(now)
	w.expireLocked(now)
	return w.policy.maxRequests - len(w.times)
}

// nextEligible returns the earliest instant, not before now, at which an
// admission would be granted.
func (w *window) nextEligible(now time.Time) time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	at := w.clampLocked(now)
	w.expireLocked(at)
	if len(w.times) < w.policy.maxRequests {
		return at
	}
	// the oldest counted instant is the first to expire
	return w.times[0].Add(w.policy.window)
}
