// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Since Reconciler Pipeline will be used across go routines, it is
// quite possible to have producers and consumers to work at
// different speeds with a possibility of having backlogs or causing
// holdups, thus by default use a buffer length of 1024 for every
// Pipeline to ensure producers can just work seemlessly under
// regular scenarios
const bufferLength = 1024

// delay before a key whose reconciliation failed is retried
var errorBackoff = time.Second

// Pipeline of keys to be processed by reconciler upon notification
type Pipeline[K comparable] struct {
	// context under which the pipeline is working
	// where the context closure means the pipeline is stopped
	ctx context.Context

	// set of keys waiting in the pipeline, used to compress multiple
	// notifications for a key into one
	mu      sync.Mutex
	pending map[K]struct{}

	// Pipeline is internally built on a buffered channel
	pChannel chan K

	// reconciler function to trigger while processing a key
	reconciler reconcilerFunc[K]

	logger *slog.Logger
	done   chan struct{}
}

// Enqueue adds k to the pipeline unless it is already waiting there.
func (p *Pipeline[K]) Enqueue(k K) error {
	// do not allow if the context is already closed
	if p.ctx.Err() != nil {
		return p.ctx.Err()
	}

	p.mu.Lock()
	_, loaded := p.pending[k]
	if !loaded {
		p.pending[k] = struct{}{}
	}
	p.mu.Unlock()
	if loaded {
		return nil
	}

	select {
	case p.pChannel <- k:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// requeueAfter enqueues k again once d elapsed, unless the pipeline is
// stopped first.
func (p *Pipeline[K]) requeueAfter(k K, d time.Duration) {
	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-p.ctx.Done():
		case <-timer.C:
			_ = p.Enqueue(k)
		}
	}()
}

// Done is closed once the pipeline stopped processing.
func (p *Pipeline[K]) Done() <-chan struct{} {
	return p.done
}

// start processing the pipeline until the context is closed
func (p *Pipeline[K]) run() {
	defer close(p.done)
	for {
		select {
		case <-p.ctx.Done():
			// pipeline processing is stopped return from here
			return
		case k := <-p.pChannel:
			// drop the key from the pending set before triggering the
			// reconciler, so changes observed meanwhile queue it again
			p.mu.Lock()
			delete(p.pending, k)
			p.mu.Unlock()

			res, err := p.reconciler(k)
			if err != nil {
				p.logger.Warn("reconcile failed, retrying", "key", k, "after", errorBackoff, "error", err)
				p.requeueAfter(k, errorBackoff)
				continue
			}
			if res != nil && res.RequeueAfter > 0 {
				p.requeueAfter(k, res.RequeueAfter)
			}
		}
	}
}

// NewPipeline creates a Pipeline for queuing up and processing keys
// provided for reconciliation, it runs until ctx is closed
func NewPipeline[K comparable](ctx context.Context, fn reconcilerFunc[K], logger *slog.Logger) *Pipeline[K] {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline[K]{
		ctx:        ctx,
		pending:    make(map[K]struct{}),
		pChannel:   make(chan K, bufferLength),
		reconciler: fn,
		logger:     logger,
		done:       make(chan struct{}),
	}

	go p.run()
	return p
}
