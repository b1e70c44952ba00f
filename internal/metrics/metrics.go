// Package metrics defines the Prometheus collectors for the worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksSucceeded counts completed processing passes per queue.
	TasksSucceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Subsystem: "dispatcher",
		Name:      "tasks_succeeded_total",
		Help:      "Number of tasks processed successfully, by queue.",
	}, []string{"queue"})

	// TasksFailed counts failed processing passes per queue.
	TasksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Subsystem: "dispatcher",
		Name:      "tasks_failed_total",
		Help:      "Number of tasks that failed processing, by queue.",
	}, []string{"queue"})

	// RecordsFetched counts records returned by the provider API per family.
	RecordsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Subsystem: "sync",
		Name:      "records_fetched_total",
		Help:      "Number of records fetched from the provider, by record family.",
	}, []string{"family"})

	// RecordsUpserted counts records persisted per family.
	RecordsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Subsystem: "sync",
		Name:      "records_upserted_total",
		Help:      "Number of records upserted into storage, by record family.",
	}, []string{"family"})

	// FamilyFailures counts record families abandoned mid-pass.
	FamilyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Subsystem: "sync",
		Name:      "family_failures_total",
		Help:      "Number of per-family sync failures, by record family.",
	}, []string{"family"})

	// SyncPasses counts whole sync passes by result.
	SyncPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vitalsync",
		Subsystem: "sync",
		Name:      "passes_total",
		Help:      "Number of sync passes, by result (complete, partial, credential_failed).",
	}, []string{"result"})
)
