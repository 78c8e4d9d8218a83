// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package keystore

import (
	"log/slog"

	"github.com/go-core-stack/keypool/errors"
	"github.com/go-core-stack/keypool/rate"
	"github.com/go-core-stack/keypool/reconciler"
)

// SyncOption configures a pool synced with the store
type SyncOption func(*PoolSync)

// WithRemoved sets a function called with the identity of every key
// removed from the pool
func WithRemoved(fn func(identity string)) SyncOption {
	return func(s *PoolSync) {
		s.removed = fn
	}
}

// PoolSync keeps the membership of a pool in step with the store, every
// stored key that is not disabled is a member of the pool.
//
// A member whose stored policy changes keeps its current policy and
// window, disabling and enabling the key again applies the new policy
// with an empty window.
type PoolSync struct {
	store   *Store
	pool    *rate.Pool
	logger  *slog.Logger
	removed func(identity string)
}

// SyncPool registers a controller keeping pool in step with the store,
// all stored keys are reconciled right away
func (s *Store) SyncPool(pool *rate.Pool, opts ...SyncOption) (*PoolSync, error) {
	if pool == nil {
		return nil, errors.Wrap(errors.InvalidArgument, "no pool to sync")
	}
	ps := &PoolSync{
		store:  s,
		pool:   pool,
		logger: s.logger.With("pool", pool.Name()),
	}
	for _, opt := range opts {
		opt(ps)
	}
	if err := s.Register(ps.controllerName(), ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func (ps *PoolSync) controllerName() string {
	return "pool-sync/" + ps.pool.Name()
}

// Stop ends syncing, the pool keeps its current members
func (ps *PoolSync) Stop() {
	ps.store.Unregister(ps.controllerName())
}

func (ps *PoolSync) remove(id Identity) {
	if _, err := ps.pool.Remove(string(id)); err != nil {
		// not a member
		return
	}
	ps.logger.Info("key removed from pool", "key", id)
	if ps.removed != nil {
		ps.removed(string(id))
	}
}

// Reconcile brings the pool membership of one key in line with its
// stored definition
func (ps *PoolSync) Reconcile(id Identity) (*reconciler.Result, error) {
	rec, err := ps.store.Get(ps.store.ctx, string(id))
	if err != nil {
		if errors.IsNotFound(err) {
			ps.remove(id)
			return &reconciler.Result{}, nil
		}
		return nil, err
	}
	if rec.Disabled {
		ps.remove(id)
		return &reconciler.Result{}, nil
	}

	policy, err := rec.Policy()
	if err != nil {
		// retrying does not fix a stored definition
		ps.logger.Warn("key has invalid policy, keeping it out of pool", "key", id, "error", err)
		ps.remove(id)
		return &reconciler.Result{}, nil
	}

	if key, err := ps.pool.Get(string(id)); err == nil {
		if key.Policy() != policy {
			ps.logger.Info("policy change not applied to pool member", "key", id,
				"current", key.Policy(), "stored", policy)
		}
		return &reconciler.Result{}, nil
	}

	key, err := rate.NewKey(string(id), policy)
	if err != nil {
		ps.logger.Warn("failed to create key", "key", id, "error", err)
		return &reconciler.Result{}, nil
	}
	if err := ps.pool.Add(key); err != nil {
		if errors.IsAlreadyExists(err) {
			return &reconciler.Result{}, nil
		}
		return nil, err
	}
	ps.logger.Info("key added to pool", "key", id, "policy", policy)
	return &reconciler.Result{}, nil
}
