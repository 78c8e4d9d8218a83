// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rate

import (
	"fmt"
	"time"

	"github.com/go-core-stack/keypool/errors"
)

// Policy allows a key to be admitted at most maxRequests times within any
// trailing window. Policy is a value, a single one may be shared by any
// number of keys.
type Policy struct {
	maxRequests int
	window      time.Duration
}

// NewPolicy returns a policy admitting maxRequests per window.
// Both values must be positive.
func NewPolicy(maxRequests int, window time.Duration) (Policy, error) {
	if maxRequests <= 0 {
		return Policy{}, errors.Wrapf(errors.InvalidArgument, "max requests must be > 0, got %d", maxRequests)
	}
	if window <= 0 {
		return Policy{}, errors.Wrapf(errors.InvalidArgument, "window must be > 0, got %s", window)
	}
	return Policy{
		maxRequests: maxRequests,
		window:      window,
	}, nil
}

// MaxRequests returns the number of admissions allowed per window.
func (p Policy) MaxRequests() int {
	return p.maxRequests
}

// Window returns the trailing interval admissions are counted over.
func (p Policy) Window() time.Duration {
	return p.window
}

// IsZero reports whether p is the zero Policy, which admits nothing and
// is never returned by NewPolicy.
func (p Policy) IsZero() bool {
	return p.maxRequests == 0 && p.window == 0
}

func (p Policy) String() string {
	return fmt.Sprintf("%d per %s", p.maxRequests, p.window)
}
