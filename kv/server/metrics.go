package server

import "github.com/prometheus/client_golang/prometheus"

var (
	connectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tablestore",
			Subsystem: "server",
			Name:      "connections_total",
			Help:      "Counter of accepted client connections.",
		})

	liveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tablestore",
			Subsystem: "server",
			Name:      "live_sessions",
			Help:      "Number of sessions currently being served.",
		})

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tablestore",
			Subsystem: "server",
			Name:      "commands_total",
			Help:      "Counter of dispatched commands.",
		}, []string{"type"})

	commandFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tablestore",
			Subsystem: "server",
			Name:      "command_failures_total",
			Help:      "Counter of failed commands by failure kind.",
		}, []string{"kind"})

	lockBusyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tablestore",
			Subsystem: "server",
			Name:      "lock_busy_total",
			Help:      "Counter of transactions aborted because a table lock was busy.",
		})
)

func init() {
	prometheus.MustRegister(connectionsTotal)
	prometheus.MustRegister(liveSessions)
	prometheus.MustRegister(commandsTotal)
	prometheus.MustRegister(commandFailures)
	prometheus.MustRegister(lockBusyTotal)
}
