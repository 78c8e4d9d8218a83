// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package keystore persists key definitions, the identity and policy of
// every key along with whether it is disabled, and keeps rate.Pool
// membership in step with them. Usage history of a key is never
// persisted, a key joining a pool always starts with an empty window.
package keystore

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/go-core-stack/keypool/db"
	"github.com/go-core-stack/keypool/errors"
	"github.com/go-core-stack/keypool/rate"
	"github.com/go-core-stack/keypool/reconciler"
	"github.com/go-core-stack/keypool/utils"
)

// Identity of a stored key, logged only by its fingerprint
type Identity string

func (i Identity) LogValue() slog.Value {
	return slog.StringValue(rate.Fingerprint(string(i)))
}

// RecordKey is the document key of a stored key definition
type RecordKey struct {
	Identity string `bson:"identity"`
}

// Record is the stored definition of a key
type Record struct {
	MaxRequests int           `bson:"maxRequests"`
	Window      time.Duration `bson:"window"`
	Disabled    bool          `bson:"disabled"`
}

// Policy returns the admission policy of the record, InvalidArgument
// when the stored values do not form a valid policy
func (r *Record) Policy() (rate.Policy, error) {
	return rate.NewPolicy(r.MaxRequests, r.Window)
}

// Entry is a record along with its key, as returned by List
type Entry struct {
	Key    RecordKey `bson:"_id"`
	Record `bson:",inline"`
}

type policyUpdate struct {
	MaxRequests int           `bson:"maxRequests"`
	Window      time.Duration `bson:"window"`
}

type disabledUpdate struct {
	Disabled *bool `bson:"disabled,omitempty"`
}

type keyOnly struct {
	Key RecordKey `bson:"_id"`
}

// Store of key definitions over a db collection, changes to the
// collection are fanned out to the controllers registered with it
type Store struct {
	reconciler.ManagerImpl[Identity]
	ctx    context.Context
	col    db.StoreCollection
	logger *slog.Logger
}

// NewStore creates the store over col and starts watching it for
// changes until ctx is closed
func NewStore(ctx context.Context, col db.StoreCollection, logger *slog.Logger) (*Store, error) {
	if col == nil {
		return nil, errors.Wrap(errors.InvalidArgument, "no collection for key store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		ctx:    ctx,
		col:    col,
		logger: logger.With("component", "keystore"),
	}
	if err := col.SetKeyType(reflect.TypeOf(&RecordKey{})); err != nil {
		return nil, err
	}
	if err := s.ManagerImpl.Initialize(ctx, s, s.logger); err != nil {
		return nil, err
	}
	if err := col.Watch(ctx, nil, s.callback); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) callback(op string, wKey any) {
	key, ok := wKey.(*RecordKey)
	if !ok {
		s.logger.Warn("ignoring change with unexpected key", "op", op, "type", reflect.TypeOf(wKey))
		return
	}
	s.NotifyCallback(Identity(key.Identity))
}

// ReconcilerGetAllKeys lists the identities of all stored keys
func (s *Store) ReconcilerGetAllKeys() ([]Identity, error) {
	list := []keyOnly{}
	if err := s.col.FindMany(s.ctx, nil, &list); err != nil {
		return nil, err
	}
	keys := make([]Identity, 0, len(list))
	for _, k := range list {
		keys = append(keys, Identity(k.Key.Identity))
	}
	return keys, nil
}

func validateIdentity(identity string) error {
	if identity == "" {
		return errors.Wrap(errors.InvalidArgument, "key identity must not be empty")
	}
	return nil
}

// Insert stores a new enabled key, AlreadyExists if the identity is
// already stored
func (s *Store) Insert(ctx context.Context, identity string, policy rate.Policy) error {
	if err := validateIdentity(identity); err != nil {
		return err
	}
	if policy.IsZero() {
		return errors.Wrap(errors.InvalidArgument, "key policy is not set")
	}
	return s.col.InsertOne(ctx, &RecordKey{Identity: identity}, &Record{
		MaxRequests: policy.MaxRequests(),
		Window:      policy.Window(),
	})
}

// Put stores the policy of a key, creating it when missing, the disabled
// flag of an existing key is left as is
func (s *Store) Put(ctx context.Context, identity string, policy rate.Policy) error {
	if err := validateIdentity(identity); err != nil {
		return err
	}
	if policy.IsZero() {
		return errors.Wrap(errors.InvalidArgument, "key policy is not set")
	}
	return s.col.UpdateOne(ctx, &RecordKey{Identity: identity}, &policyUpdate{
		MaxRequests: policy.MaxRequests(),
		Window:      policy.Window(),
	}, true)
}

// Get returns the stored definition of a key
func (s *Store) Get(ctx context.Context, identity string) (*Record, error) {
	rec := &Record{}
	if err := s.col.FindOne(ctx, &RecordKey{Identity: identity}, rec); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Wrapf(errors.NotFound, "key %s not found", rate.Fingerprint(identity))
		}
		return nil, err
	}
	return rec, nil
}

// List returns all stored keys
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	list := []Entry{}
	if err := s.col.FindMany(ctx, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetDisabled disables or enables a stored key, a disabled key is kept
// out of the pools synced with the store
func (s *Store) SetDisabled(ctx context.Context, identity string, disabled bool) error {
	return s.col.UpdateOne(ctx, &RecordKey{Identity: identity}, &disabledUpdate{
		Disabled: utils.Pointer(disabled),
	}, false)
}

// Delete removes a stored key
func (s *Store) Delete(ctx context.Context, identity string) error {
	return s.col.DeleteOne(ctx, &RecordKey{Identity: identity})
}
