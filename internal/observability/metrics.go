package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DispatchOK       = "ok"
	DispatchNotFound = "not_found"
	DispatchBadArity = "bad_argument_count"
	DispatchParse    = "parse_error"
	DispatchFailed   = "failed"
	DispatchExit     = "exit"

	SessionOpened      = "opened"
	SessionNormalClose = "normal_close"
	SessionAbruptClose = "abrupt_close"
	SessionSelfClose   = "self_close"

	DirectionIn  = "in"
	DirectionOut = "out"
)

var (
	registerOnce sync.Once

	commandDispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peerline",
			Subsystem: "command",
			Name:      "dispatch_total",
			Help:      "Operator command dispatches by result.",
		},
		[]string{"node", "result"},
	)
	sessionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peerline",
			Subsystem: "session",
			Name:      "events_total",
			Help:      "Session lifecycle transitions.",
		},
		[]string{"node", "event"},
	)
	packets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "peerline",
			Subsystem: "session",
			Name:      "packets_total",
			Help:      "Packets read or written by kind.",
		},
		[]string{"node", "kind", "direction"},
	)
	liveSessions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "peerline",
			Subsystem: "session",
			Name:      "live",
			Help:      "Sessions currently owned by the application.",
		},
		[]string{"node"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(commandDispatches, sessionEvents, packets, liveSessions)
	})
}

func RecordDispatch(node, result string) {
	RegisterMetrics()
	commandDispatches.WithLabelValues(node, result).Inc()
}

func RecordSessionEvent(node, event string) {
	RegisterMetrics()
	sessionEvents.WithLabelValues(node, event).Inc()
}

func RecordPacket(node, kind, direction string) {
	RegisterMetrics()
	packets.WithLabelValues(node, kind, direction).Inc()
}

func SetLiveSessions(node string, n int) {
	RegisterMetrics()
	liveSessions.WithLabelValues(node).Set(float64(n))
}
