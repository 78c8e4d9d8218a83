// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rate

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/go-core-stack/keypool/errors"
)

// Observer is notified of pool activity. Notifications are delivered
// while the pool lock is held, so they arrive in the order the pool
// changed. Implementations must not block and must not call back into
// the pool.
type Observer interface {
	// Polled reports the outcome of a poll, identity is empty when no
	// key admitted
	Polled(identity string, ok bool)

	// Added reports a key joining the pool and the resulting size
	Added(identity string, size int)

	// Removed reports a key leaving the pool and the resulting size
	Removed(identity string, size int)
}

// Option configures a Pool.
type Option func(*Pool)

// WithObserver registers an observer for poll outcomes and membership
// changes.
func WithObserver(o Observer) Option {
	return func(p *Pool) {
		p.observer = o
	}
}

// WithName names the pool, by default a random UUID is used.
func WithName(name string) Option {
	return func(p *Pool) {
		p.name = name
	}
}

// WithClock replaces the wall clock used by Poll.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) {
		p.now = now
	}
}

// Pool holds an ordered set of keys and hands out the first one that is
// allowed to issue a request.
type Pool struct {
	name     string
	mu       sync.RWMutex    // protects keys and index, never held across blocking work
	keys     []*Key          // members in insertion order, which is the scan order
	index    map[string]*Key // members by identity
	observer Observer
	now      func() time.Time
}

// NewPool returns an empty pool.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		index: make(map[string]*Key),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.name == "" {
		p.name = uuid.NewString()
	}
	return p
}

// Name returns the pool name.
func (p *Pool) Name() string {
	return p.name
}

// Add appends key to the end of the pool. Adding an identity that is
// already a member fails with AlreadyExists.
func (p *Pool) Add(key *Key) error {
	if key == nil {
		return errors.Wrap(errors.InvalidArgument, "key must not be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.index[key.identity]; ok {
		return errors.Wrapf(errors.AlreadyExists, "key %s, already exists", Fingerprint(key.identity))
	}
	p.keys = append(p.keys, key)
	p.index[key.identity] = key
	if p.observer != nil {
		p.observer.Added(key.identity, len(p.keys))
	}
	return nil
}

// Remove deletes the member with the given identity and returns it.
// Removing an unknown identity fails with NotFound.
func (p *Pool) Remove(identity string) (*Key, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key, ok := p.index[identity]
	if !ok {
		return nil, errors.Wrapf(errors.NotFound, "key %s not found", Fingerprint(identity))
	}
	delete(p.index, identity)
	for i, k := range p.keys {
		if k == key {
			p.keys = slices.Delete(p.keys, i, i+1)
			break
		}
	}
	if p.observer != nil {
		p.observer.Removed(identity, len(p.keys))
	}
	return key, nil
}

// Poll is PollAt with the pool clock.
func (p *Pool) Poll() (string, bool) {
	return p.PollAt(p.now())
}

// PollAt scans the members in insertion order and returns the identity of
// the first one admitting a request at now. It returns false if none does,
// the caller decides when to try again.
func (p *Pool) PollAt(now time.Time) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	identity, ok := "", false
	for _, key := range p.keys {
		if identity, ok = key.TryUse(now); ok {
			break
		}
	}
	if p.observer != nil {
		// polls admitting a key are reported before its removal
		p.observer.Polled(identity, ok)
	}
	return identity, ok
}

// Size returns the number of members.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.keys)
}

// Contains reports whether identity is a member.
func (p *Pool) Contains(identity string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.index[identity]
	return ok
}

// Get returns the member with the given identity.
func (p *Pool) Get(identity string) (*Key, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	key, ok := p.index[identity]
	if !ok {
		return nil, errors.Wrapf(errors.NotFound, "key %s not found", Fingerprint(identity))
	}
	return key, nil
}

// Identities returns the member identities in scan order.
func (p *Pool) Identities() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.keys))
	for _, key := range p.keys {
		ids = append(ids, key.identity)
	}
	return ids
}

// NextEligible returns the earliest instant, not before now, at which a
// poll would succeed. It returns false for an empty pool.
func (p *Pool) NextEligible(now time.Time) (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var next time.Time
	for i, key := range p.keys {
		at := key.NextEligible(now)
		if i == 0 || at.Before(next) {
			next = at
		}
	}
	return next, len(p.keys) != 0
}
