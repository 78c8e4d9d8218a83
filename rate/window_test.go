// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rate

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/go-core-stack/keypool/errors"
)

var epoch = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func mustPolicy(t *testing.T, n int, w time.Duration) Policy {
	t.Helper()
	p, err := NewPolicy(n, w)
	if err != nil {
		t.Fatalf("unexpected error creating policy (%d, %s): %v", n, w, err)
	}
	return p
}

func TestNewPolicyValidation(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		window time.Duration
		valid  bool
	}{
		{"valid", 1, time.Second, true},
		{"valid large", 1 << 20, time.Hour, true},
		{"zero requests", 0, time.Second, false},
		{"negative requests", -3, time.Second, false},
		{"zero window", 5, 0, false},
		{"negative window", 5, -time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPolicy(tt.n, tt.window)
			if !tt.valid {
				if err == nil {
					t.Fatalf("expected error for (%d, %s)", tt.n, tt.window)
				}
				if !errors.IsInvalidArgument(err) {
					t.Fatalf("expected InvalidArgument error, got %v", err)
				}
				if !p.IsZero() {
					t.Fatalf("expected zero policy on error, got %s", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.MaxRequests() != tt.n || p.Window() != tt.window {
				t.Fatalf("policy mismatch: got %s", p)
			}
		})
	}
}

// TestWindowBoundaryIsExclusive verifies that an admission exactly one
// window old no longer counts.
func TestWindowBoundaryIsExclusive(t *testing.T) {
	w := newWindow(mustPolicy(t, 1, 2*time.Second))

	if !w.tryAdmit(epoch) {
		t.Fatalf("first admission should be granted")
	}
	if w.tryAdmit(epoch.Add(2*time.Second - time.Nanosecond)) {
		t.Fatalf("admission inside the window should be refused")
	}
	if !w.tryAdmit(epoch.Add(2 * time.Second)) {
		t.Fatalf("admission exactly one window later should be granted")
	}
}

// TestWindowRefusalLeavesStateUnchanged ensures refused attempts do not
// consume budget or extend the cooling period.
func TestWindowRefusalLeavesStateUnchanged(t *testing.T) {
	w := newWindow(mustPolicy(t, 2, time.Second))

	w.tryAdmit(epoch)
	w.tryAdmit(epoch)
	for i := 0; i < 10; i++ {
		if w.tryAdmit(epoch.Add(time.Duration(i) * 50 * time.Millisecond)) {
			t.Fatalf("attempt %d should have been refused", i)
		}
	}
	if got := len(w.times); got != 2 {
		t.Fatalf("expected 2 logged admissions, got %d", got)
	}
	if !w.tryAdmit(epoch.Add(time.Second)) {
		t.Fatalf("budget should be back one window after the first admissions")
	}
}

// TestWindowClampsEarlierInstants verifies an instant older than the
// newest admission is treated as the newest one.
func TestWindowClampsEarlierInstants(t *testing.T) {
	w := newWindow(mustPolicy(t, 2, time.Second))

	if !w.tryAdmit(epoch.Add(5 * time.Second)) {
		t.Fatalf("first admission should be granted")
	}
	if !w.tryAdmit(epoch) {
		t.Fatalf("second admission should be granted")
	}
	if w.tryAdmit(epoch.Add(5*time.Second + 999*time.Millisecond)) {
		t.Fatalf("both admissions are logged at +5s, budget should be used up")
	}
	if !w.tryAdmit(epoch.Add(6 * time.Second)) {
		t.Fatalf("budget should be back at +6s")
	}
}

func TestWindowRemainingAndNextEligible(t *testing.T) {
	w := newWindow(mustPolicy(t, 3, 10*time.Second))

	if got := w.remaining(epoch); got != 3 {
		t.Fatalf("expected 3 remaining, got %d", got)
	}
	if got := w.nextEligible(epoch); !got.Equal(epoch) {
		t.Fatalf("empty window should be eligible immediately, got %v", got)
	}

	w.tryAdmit(epoch)
	w.tryAdmit(epoch.Add(time.Second))
	w.tryAdmit(epoch.Add(2 * time.Second))

	if got := w.remaining(epoch.Add(3 * time.Second)); got != 0 {
		t.Fatalf("expected 0 remaining, got %d", got)
	}
	want := epoch.Add(10 * time.Second)
	if got := w.nextEligible(epoch.Add(3 * time.Second)); !got.Equal(want) {
		t.Fatalf("next eligible mismatch: got %v want %v", got, want)
	}
	if got := w.remaining(want); got != 1 {
		t.Fatalf("expected 1 remaining once the oldest expired, got %d", got)
	}
	if got := w.remaining(epoch.Add(12 * time.Second)); got != 3 {
		t.Fatalf("expected full budget after the window, got %d", got)
	}
}

// TestWindowSlidingInvariant fires admissions at random instants and checks
// that no interval of one window ever holds more than the allowed count,
// and that an attempt is only refused when the window is actually full.
func TestWindowSlidingInvariant(t *testing.T) {
	policies := []struct {
		n      int
		window time.Duration
	}{
		{1, 2 * time.Second},
		{2, time.Second},
		{3, 500 * time.Millisecond},
		{5, 3 * time.Second},
		{100, 10 * time.Second},
	}

	rng := rand.New(rand.NewPCG(7, 11))
	for _, pp := range policies {
		pol := mustPolicy(t, pp.n, pp.window)
		w := newWindow(pol)

		var admitted []time.Time
		countIn := func(end time.Time) int {
			start := end.Add(-pol.Window())
			c := 0
			for _, a := range admitted {
				if a.After(start) && !a.After(end) {
					c++
				}
			}
			return c
		}

		now := epoch
		for i := 0; i < 2000; i++ {
			// mostly bursts at the same instant, sometimes long gaps
			switch rng.IntN(4) {
			case 0:
			case 3:
				now = now.Add(time.Duration(rng.Int64N(int64(2 * pol.Window()))))
			default:
				now = now.Add(time.Duration(rng.Int64N(int64(pol.Window() / 10))))
			}

			full := countIn(now) >= pol.MaxRequests()
			ok := w.tryAdmit(now)
			if ok == full {
				t.Fatalf("policy %s: attempt at +%s returned %v with %d counted", pol, now.Sub(epoch), ok, countIn(now))
			}
			if ok {
				admitted = append(admitted, now)
			}
		}

		for _, end := range admitted {
			if c := countIn(end); c > pol.MaxRequests() {
				t.Fatalf("policy %s: %d admissions in the window ending at +%s", pol, c, end.Sub(epoch))
			}
		}
	}
}
