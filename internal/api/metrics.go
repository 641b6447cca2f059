package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "tradejournal"

// Metrics agrupa las métricas del servidor. Cada Server tiene su propio
// registry para que los tests puedan levantar varios en paralelo.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TradesImported  prometheus.Counter
	TerminalFetches *prometheus.CounterVec
	StreamClients   prometheus.Gauge
}

// NewMetrics registra todas las métricas en un registry nuevo.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		TradesImported: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "ledger",
			Name:      "trades_imported_total",
			Help:      "Trades persisted through file imports",
		}),
		TerminalFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "terminal",
			Name:      "fetches_total",
			Help:      "Terminal relay requests by result",
		}, []string{"result"}),
		StreamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Connected statistics websocket clients",
		}),
	}
}

// Registry expone el registry para /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
