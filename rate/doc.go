// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package rate provides a pool of rate limited credentials (API keys) that
// hands out whichever key is allowed to issue a request right now.
//
// # Overview
//
// Upstream services usually limit each account to N requests per window.
// Holding several accounts and rotating across them gives an aggregate
// throughput above any single account's limit. This package does the
// accounting for that rotation:
//
//   - Policy: immutable rule, N admissions per window
//   - Key: an opaque credential paired with its own admission log
//   - Pool: ordered set of keys, polled for the first eligible one
//
// # Admission Strategy
//
// Every key keeps a sliding window log of the instants it was admitted at.
// An admission at instant t is granted iff fewer than N logged instants lie
// in the half open interval (t-window, t]. An instant exactly one window
// old is expired. Check and record happen in a single critical section per
// key, so concurrent callers can never both observe room and overshoot the
// limit.
//
// Instants older than the newest logged instant are treated as the newest
// one. Wall clock readings taken by racing goroutines may reach the lock out
// of order, and clamping keeps the log sorted without ever admitting more
// than the policy allows.
//
// # Polling
//
// Pool.Poll never sleeps, retries or blocks on I/O. It scans the members in
// the order they were added and returns the identity of the first key that
// admits. When no key admits it reports false, and waiting is left to the
// caller:
//
//	pol, _ := rate.NewPolicy(1, 2*time.Second)
//	pool := rate.NewPool()
//	for _, id := range []string{"key-1", "key-2", "key-3"} {
//		key, _ := rate.NewKey(id, pol)
//		_ = pool.Add(key)
//	}
//
//	for sent := 0; sent < 20; {
//		id, ok := pool.Poll()
//		if !ok {
//			time.Sleep(500 * time.Millisecond)
//			continue
//		}
//		callUpstream(id)
//		sent++
//	}
//
// Earlier keys are tried first on every poll, which acts as a soft priority.
// No further fairness is provided.
//
// # Concurrency
//
// Pool membership is guarded by a read/write mutex: polls share it, Add and
// Remove take it exclusively, so a poll never sees a partially removed key.
// Each key serializes its own admissions, so polls landing on different keys
// proceed in parallel.
//
// # Errors
//
// Construction and membership errors carry codes from package errors:
// InvalidArgument for an invalid policy or key, AlreadyExists for a
// duplicate identity on Add and NotFound for Remove of an unknown identity.
// A poll that finds no eligible key is not an error.
package rate
