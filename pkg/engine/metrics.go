package engine

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's prometheus collectors on a private registry,
// so embedding applications choose what to expose. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	eventsMerged  *prometheus.CounterVec
	scansFinished *prometheus.CounterVec
	denialsTotal  prometheus.Counter
}

// NewMetrics creates and registers the engine collectors.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		eventsMerged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanforge_events_merged_total",
				Help: "Module events merged into the store, by event kind",
			},
			[]string{"kind"},
		),
		scansFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanforge_scans_finished_total",
				Help: "Scans reaching a terminal status",
			},
			[]string{"status"},
		),
		denialsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scanforge_capability_denials_total",
				Help: "Module launches refused for missing capabilities",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.eventsMerged, m.scansFinished, m.denialsTotal} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the private registry holding the engine collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) eventMerged(kind string) {
	if m == nil {
		return
	}
	m.eventsMerged.WithLabelValues(kind).Inc()
}

func (m *Metrics) scanFinished(status string) {
	if m == nil {
		return
	}
	m.scansFinished.WithLabelValues(status).Inc()
}

func (m *Metrics) capabilityDenied() {
	if m == nil {
		return
	}
	m.denialsTotal.Inc()
}
