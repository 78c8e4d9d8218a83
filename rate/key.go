// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rate

import (
	"time"

	"github.com/go-core-stack/keypool/errors"
)

// State describes whether a key has budget left at a given instant.
type State int

const (
	// Eligible keys admit the next request.
	Eligible State = iota

	// Cooling keys have used up their budget and wait for the oldest
	// admission to leave the window.
	Cooling
)

func (s State) String() string {
	if s == Cooling {
		return "Cooling"
	}
	return "Eligible"
}

// Key is a credential governed by a rate limit policy. The identity is
// opaque to this package and never changes, only the admission log does.
type Key struct {
	identity string
	policy   Policy
	window   *window
}

// NewKey returns a key with the given identity and an empty admission log.
func NewKey(identity string, policy Policy) (*Key, error) {
	if identity == "" {
		return nil, errors.Wrap(errors.InvalidArgument, "key identity must not be empty")
	}
	if policy.maxRequests <= 0 || policy.window <= 0 {
		return nil, errors.Wrapf(errors.InvalidArgument, "invalid policy %s for key %s", policy, Fingerprint(identity))
	}
	return &Key{
		identity: identity,
		policy:   policy,
		window:   newWindow(policy),
	}, nil
}

// Identity returns the credential value of the key.
func (k *Key) Identity() string {
	return k.identity
}

// Policy returns the policy the key was created with.
func (k *Key) Policy() Policy {
	return k.policy
}

// TryUse consumes one admission at now and returns the key identity, or
// returns false leaving the key untouched if the policy has no room.
func (k *Key) TryUse(now time.Time) (string, bool) {
	if !k.window.tryAdmit(now) {
		return "", false
	}
	return k.identity, true
}

// Remaining returns the number of admissions still available at now.
func (k *Key) Remaining(now time.Time) int {
	return k.window.remaining(now)
}

// State returns Eligible if the key would admit at now.
func (k *Key) State(now time.Time) State {
	if k.window.remaining(now) > 0 {
		return Eligible
	}
	return Cooling
}

// NextEligible returns the earliest instant, not before now, at which the
// key admits again.
func (k *Key) NextEligible(now time.Time) time.Time {
	return k.window.nextEligible(now)
}
