// Package metrics exposes Prometheus collectors for provisioning and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Harshitk-cp/clubledger/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	WalletProvisions *prometheus.CounterVec
	RoleBootstraps   *prometheus.CounterVec
	EventsHandled    *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	ImportedRows     *prometheus.CounterVec
}

// New builds the collectors on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		WalletProvisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubledger_wallet_provisions_total",
				Help: "Wallet provisioning attempts by outcome",
			},
			[]string{"outcome"},
		),
		RoleBootstraps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubledger_role_bootstraps_total",
				Help: "Standard role bootstraps by result",
			},
			[]string{"result"},
		),
		EventsHandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubledger_events_handled_total",
				Help: "Event handler executions by kind and result",
			},
			[]string{"kind", "result"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubledger_http_requests_total",
				Help: "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clubledger_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		ImportedRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clubledger_imported_rows_total",
				Help: "Member import rows by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.WalletProvisions,
		m.RoleBootstraps,
		m.EventsHandled,
		m.HTTPRequests,
		m.HTTPDuration,
		m.ImportedRows,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordProvision(outcome domain.ProvisionOutcome) {
	if m == nil {
		return
	}
	m.WalletProvisions.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) RecordBootstrap(err error) {
	if m == nil {
		return
	}
	m.RoleBootstraps.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) RecordEvent(kind domain.EventKind, err error) {
	if m == nil {
		return
	}
	m.EventsHandled.WithLabelValues(string(kind), result(err)).Inc()
}

func (m *Metrics) RecordImportRow(res string) {
	if m == nil {
		return
	}
	m.ImportedRows.WithLabelValues(res).Inc()
}

func (m *Metrics) ObserveHTTP(route, method string, status int, started time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(time.Since(started).Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
