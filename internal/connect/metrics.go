// internal/connect/metrics.go
package connect

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/connect-client/internal/planner"
	"github.com/tamzrod/connect-client/internal/status"
)

// Metrics are the communication loop counters.
type Metrics struct {
	actions  *prometheus.CounterVec
	errors   *prometheus.CounterVec
	commands *prometheus.CounterVec
	connects prometheus.Counter
	link     prometheus.Gauge
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "connect",
			Name:      "actions_total",
			Help:      "Actions sent to the server, by outcome.",
		}, []string{"outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "connect",
			Name:      "cycle_errors_total",
			Help:      "Communication cycle errors, by class.",
		}, []string{"code"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "connect",
			Name:      "commands_total",
			Help:      "Commands received from the server, by kind.",
		}, []string{"kind"}),
		connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "connect",
			Name:      "connects_total",
			Help:      "Transport establish attempts.",
		}),
		link: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "connect",
			Name:      "link_state",
			Help:      "Link state code (0 unknown, 1 ok, 2 error, 3 connecting, 4 off).",
		}),
	}
	reg.MustRegister(m.actions, m.errors, m.commands, m.connects, m.link)
	return m
}

// All methods are nil-safe so the loop runs without metrics.

func (m *Metrics) outcome(o planner.Outcome) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(o.String()).Inc()
}

func (m *Metrics) cycleError(code status.Code) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(code.String()).Inc()
}

func (m *Metrics) command(kind string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(kind).Inc()
}

func (m *Metrics) connect() {
	if m == nil {
		return
	}
	m.connects.Inc()
}

func (m *Metrics) setLink(l status.Link) {
	if m == nil {
		return
	}
	m.link.Set(float64(l))
}
