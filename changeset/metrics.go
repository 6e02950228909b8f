/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changeset

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siteassist_changeset_operations_total",
			Help: "Change set operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	compensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siteassist_changeset_compensations_total",
			Help: "Best-effort cleanup actions by action and result.",
		},
		[]string{"action", "result"},
	)
	patchesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siteassist_changeset_patches_total",
			Help: "Patches submitted through the pipeline by result.",
		},
		[]string{"result"},
	)
)

// Observe records the outcome of a change set operation.
func Observe(operation string, err error) {
	operations.WithLabelValues(operation, Outcome(err)).Inc()
}

// ObservePatches records applied and failed patch counts.
func ObservePatches(applied, failed int) {
	patchesApplied.WithLabelValues("applied").Add(float64(applied))
	patchesApplied.WithLabelValues("failed").Add(float64(failed))
}
