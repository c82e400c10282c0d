package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Session metrics
	SessionActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worktimer_session_active",
			Help: "1 while the session is active, 0 otherwise",
		},
	)

	ActiveSecondsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worktimer_active_seconds_total",
			Help: "Seconds accumulated while active",
		},
	)

	StateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktimer_state_transitions_total",
			Help: "Session state transitions by target state",
		},
		[]string{"state"},
	)

	// Binding metrics
	BindingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktimer_bindings_total",
			Help: "Completed slot bindings",
		},
		[]string{"slot"},
	)

	// OS query metrics
	OSQueryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worktimer_os_query_failures_total",
			Help: "OS query failures treated as absent evidence",
		},
		[]string{"op"},
	)

	// Persistence metrics
	PersistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worktimer_persist_failures_total",
			Help: "Failed writes of the state file",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SessionActive,
		ActiveSecondsTotal,
		StateTransitionsTotal,
		BindingsTotal,
		OSQueryFailures,
		PersistFailures,
	)
}
