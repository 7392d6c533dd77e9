// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OutcomeOK labels a successful operation.
const OutcomeOK = "ok"

// Metrics contains the custom Prometheus metrics for ecommercers.
// It satisfies auth.OutcomeRecorder and session.SweepRecorder.
type Metrics struct {
	AuthOperations *prometheus.CounterVec
	SessionsSwept  prometheus.Counter
}

// NewMetrics creates and registers the ecommercers metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ecommercers_auth_operations_total",
				Help: "Total number of authentication operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		SessionsSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ecommercers_sessions_swept_total",
				Help: "Total number of expired session records removed by sweeps",
			},
		),
	}

	reg.MustRegister(m.AuthOperations)
	reg.MustRegister(m.SessionsSwept)

	return m
}

// RecordAuthOutcome counts one service operation. outcome is an error kind
// or OutcomeOK.
func (m *Metrics) RecordAuthOutcome(operation, outcome string) {
	if outcome == "" {
		outcome = OutcomeOK
	}
	m.AuthOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordSessionsSwept adds n removed records.
func (m *Metrics) RecordSessionsSwept(n int) {
	if n > 0 {
		m.SessionsSwept.Add(float64(n))
	}
}
