package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "steuer_"

// Metrics counts what flows through the resolver and the acquisition.
type Metrics struct {
	registry     *prometheus.Registry
	events       *prometheus.CounterVec
	actions      *prometheus.CounterVec
	acquisitions *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "events_total",
			Help: "Raw input events read from the devices.",
		}, []string{"kind"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "actions_total",
			Help: "Actions resolved from raw input events.",
		}, []string{"action"}),
		acquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "acquisitions_total",
			Help: "Acquisition attempts by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.events,
		m.actions,
		m.acquisitions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Event(kind string) { m.events.WithLabelValues(kind).Inc() }

func (m *Metrics) Action(name string) { m.actions.WithLabelValues(name).Inc() }

// Acquisition counts one acquisition attempt, result is "mapped" or
// "duplicate".
func (m *Metrics) Acquisition(result string) { m.acquisitions.WithLabelValues(result).Inc() }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
