// Package metrics registers the server's operational counters and
// histograms, grounded on the corpus's habit of wiring prometheus behind
// a constructor-injectable registry rather than a global one (see
// Sumatoshi-tech-codefang's internal/observability package).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Server holds the counters and histograms the server command loop
// updates. It does not register an HTTP handler itself; a host binary
// decides whether and how to expose Registry.
type Server struct {
	Registry *prometheus.Registry

	Commands          *prometheus.CounterVec
	CalculateDuration prometheus.Histogram
	ProtocolErrors    prometheus.Counter
}

// New builds a Server with a fresh registry, so repeated calls (one per
// test, for instance) never collide on a shared default registerer.
func New() *Server {
	reg := prometheus.NewRegistry()

	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "replicest",
		Subsystem: "server",
		Name:      "commands_total",
		Help:      "Control-channel commands received, by verb.",
	}, []string{"command"})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "replicest",
		Subsystem: "server",
		Name:      "calculate_duration_seconds",
		Help:      "Wall-clock time of the calculate command, including the replication engine.",
		Buckets:   prometheus.DefBuckets,
	})

	protoErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "replicest",
		Subsystem: "server",
		Name:      "protocol_errors_total",
		Help:      "Control commands answered with an error, and data payloads that were short or unexpected.",
	})

	reg.MustRegister(commands, duration, protoErrors)

	return &Server{
		Registry:          reg,
		Commands:          commands,
		CalculateDuration: duration,
		ProtocolErrors:    protoErrors,
	}
}
