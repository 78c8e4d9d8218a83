// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package metrics exports key pool activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/go-core-stack/keypool/rate"
)

const namespace = "keypool"

// Metrics implements rate.Observer on top of Prometheus collectors.
// Key identities are exported as fingerprints only.
type Metrics struct {
	PollsTotal      *prometheus.CounterVec
	AdmissionsTotal *prometheus.CounterVec
	Keys            prometheus.Gauge
}

// NewMetrics creates and registers the pool metrics with the given
// registry, labelled with the pool name.
func NewMetrics(reg prometheus.Registerer, pool string) *Metrics {
	labels := prometheus.Labels{"pool": pool}
	return &Metrics{
		PollsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "polls_total",
				Help:        "Total number of polls for an eligible key",
				ConstLabels: labels,
			},
			[]string{"result"}, // result=admitted/exhausted
		),
		AdmissionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "admissions_total",
				Help:        "Total number of admissions granted per key",
				ConstLabels: labels,
			},
			[]string{"key"},
		),
		Keys: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "keys",
				Help:        "Number of keys in the pool",
				ConstLabels: labels,
			},
		),
	}
}

// Polled records the outcome of a single poll.
func (m *Metrics) Polled(identity string, ok bool) {
	if !ok {
		m.PollsTotal.WithLabelValues("exhausted").Inc()
		return
	}
	m.PollsTotal.WithLabelValues("admitted").Inc()
	m.AdmissionsTotal.WithLabelValues(rate.Fingerprint(identity)).Inc()
}

// Added records the pool size after a key joined.
func (m *Metrics) Added(identity string, size int) {
	m.Keys.Set(float64(size))
}

// Removed records the pool size after a key left and drops its per key
// series.
func (m *Metrics) Removed(identity string, size int) {
	m.Keys.Set(float64(size))
	m.AdmissionsTotal.DeleteLabelValues(rate.Fingerprint(identity))
}

var _ rate.Observer = (*Metrics)(nil)
