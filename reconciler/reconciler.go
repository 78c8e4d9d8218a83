// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-core-stack/keypool/errors"
)

// Taking motivation from kubernetes
// https://github.com/kubernetes-sigs/controller-runtime/blob/main/pkg/reconcile/reconcile.go
// enable a reconciler function
type Result struct {
	// RequeueAfter if greater than 0, tells the Controller to requeue the reconcile key after the Duration.
	RequeueAfter time.Duration
}

type reconcilerFunc[K comparable] func(k K) (*Result, error)

// Controller is registered with a Manager to process changes occurring to
// the entries it manages
type Controller[K comparable] interface {
	Reconcile(k K) (*Result, error)
}

// Controller data used for saving the context of a controller
// and corresponding information along with the reconciliation
// pipeline
type controllerData[K comparable] struct {
	name     string
	handle   Controller[K]
	pipeline *Pipeline[K]
	cancel   context.CancelFunc
}

// Manager interface for enforcing implementation of specific
// functions
type Manager[K comparable] interface {
	// function to get all existing keys in the collection
	ReconcilerGetAllKeys() ([]K, error)

	// interface should not be embed by anyone directly
	mustEmbedManagerImpl()
}

// ManagerImpl holds the controllers registered for a set of entries,
// typically built over and above a database store on which it offers
// reconciliation capabilities
type ManagerImpl[K comparable] struct {
	mu          sync.Mutex
	parent      Manager[K]
	controllers map[string]*controllerData[K]
	ctx         context.Context
	logger      *slog.Logger
}

func (m *ManagerImpl[K]) mustEmbedManagerImpl() {}

// NotifyCallback queues k for reconciliation with every registered
// controller
func (m *ManagerImpl[K]) NotifyCallback(k K) {
	m.mu.Lock()
	pipelines := make([]*controllerData[K], 0, len(m.controllers))
	for _, crtl := range m.controllers {
		pipelines = append(pipelines, crtl)
	}
	m.mu.Unlock()

	for _, crtl := range pipelines {
		if err := crtl.pipeline.Enqueue(k); err != nil {
			m.logger.Debug("dropping notification, pipeline stopped", "controller", crtl.name, "key", k, "error", err)
		}
	}
}

// Initialize the manager with context and the parent owning the entries,
// registered controllers stop when ctx is closed
func (m *ManagerImpl[K]) Initialize(ctx context.Context, parent Manager[K], logger *slog.Logger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.parent != nil {
		return errors.Wrap(errors.AlreadyExists, "Initialization already done")
	}
	if logger == nil {
		logger = slog.Default()
	}

	m.ctx = ctx
	m.parent = parent
	m.logger = logger
	m.controllers = make(map[string]*controllerData[K])

	return nil
}

// Register a controller with manager for reconciliation, every existing
// entry is queued for the new controller
func (m *ManagerImpl[K]) Register(name string, crtl Controller[K]) error {
	m.mu.Lock()
	if m.parent == nil {
		m.mu.Unlock()
		return errors.Wrap(errors.InvalidArgument, "manager is not initialized")
	}
	if _, ok := m.controllers[name]; ok {
		m.mu.Unlock()
		return errors.Wrapf(errors.AlreadyExists, "Reconciler %s, already exists", name)
	}
	ctx, cancel := context.WithCancel(m.ctx)
	data := &controllerData[K]{
		name:     name,
		handle:   crtl,
		pipeline: NewPipeline(ctx, crtl.Reconcile, m.logger.With("controller", name)),
		cancel:   cancel,
	}
	m.controllers[name] = data
	m.mu.Unlock()

	// existing entries are listed only after the controller is in place,
	// so no change notified meanwhile is missed
	keys, err := m.parent.ReconcilerGetAllKeys()
	if err != nil {
		m.Unregister(name)
		return err
	}

	// ensure triggering reconciliation of existing entries
	// separately for reconciliation by the controller
	go func() {
		for _, key := range keys {
			if err := data.pipeline.Enqueue(key); err != nil {
				m.logger.Debug("stopped queueing existing entries", "controller", name, "error", err)
				return
			}
		}
	}()

	return nil
}

// Unregister stops the named controller, its pending keys are dropped
func (m *ManagerImpl[K]) Unregister(name string) {
	m.mu.Lock()
	data, ok := m.controllers[name]
	delete(m.controllers, name)
	m.mu.Unlock()
	if ok {
		data.cancel()
	}
}
