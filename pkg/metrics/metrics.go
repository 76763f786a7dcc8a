package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for monitoring
var (
	ReconcilePasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciler_passes_total",
		Help: "The total number of reconciliation passes",
	}, []string{"kind"})

	IntentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciler_intent_transitions_total",
		Help: "The total number of intent state transitions",
	}, []string{"status"})

	CompanionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciler_companion_transitions_total",
		Help: "The total number of companion plan state transitions",
	}, []string{"status"})

	LockContentionSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_lock_contention_skips_total",
		Help: "Entities skipped in a pass because another instance held the lock",
	})

	PendingIntents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reconciler_pending_intents",
		Help: "The number of pending intents seen by the last pass",
	})

	SwapNetworkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swap_network_errors_total",
		Help: "Total number of swap network API errors by operation",
	}, []string{"operation"})
)
