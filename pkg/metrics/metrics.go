// Copyright (c) 2025 Mensahe
//
// This file is part of the Mensahe passkey service.
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0).
// See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html

// Package metrics provides Prometheus instrumentation for the passkey
// registration ceremony.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all passkey metrics.
	Namespace = "mensahe_passkey"

	// Label names
	LabelStep   = "step"
	LabelStatus = "status"
	LabelReason = "reason"

	// Step values
	StepBegin  = "begin"
	StepFinish = "finish"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// CeremoniesTotal counts registration ceremony steps by outcome.
	CeremoniesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ceremonies_total",
			Help:      "Total registration ceremony steps by step and status",
		},
		[]string{LabelStep, LabelStatus},
	)

	// CeremonyFailures counts ceremony rejections by classified reason.
	CeremonyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ceremony_failures_total",
			Help:      "Registration ceremony rejections by reason",
		},
		[]string{LabelStep, LabelReason},
	)

	// CeremonyDuration tracks how long ceremony steps take in seconds.
	CeremonyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "ceremony_duration_seconds",
			Help:      "Duration of registration ceremony steps in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{LabelStep},
	)

	// PendingRegistrations tracks the number of open pending
	// registrations (in-memory store only; Redis deployments rely on
	// Redis metrics).
	PendingRegistrations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "pending_registrations",
			Help:      "Open pending registrations in the session store",
		},
	)
)

// RecordCeremony records one ceremony step outcome with its duration.
func RecordCeremony(step, status string, duration time.Duration) {
	CeremoniesTotal.WithLabelValues(step, status).Inc()
	CeremonyDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordFailure records a classified ceremony rejection.
func RecordFailure(step, reason string) {
	CeremonyFailures.WithLabelValues(step, reason).Inc()
}
