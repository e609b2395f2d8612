package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	fanOutRecipients *prometheus.CounterVec
	fanOutEmails     *prometheus.CounterVec
	importRows       *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	fanOutRecipients := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_fanout_recipients_total",
		Help: "In-app notifications written by broadcast fan-outs",
	}, []string{"category"})

	fanOutEmails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_fanout_emails_total",
		Help: "Fan-out emails by outcome",
	}, []string{"category", "outcome"})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "spreadsheet_import_rows_total",
		Help: "Spreadsheet import rows by kind and disposition",
	}, []string{"kind", "disposition"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, fanOutRecipients, fanOutEmails, importRows, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		fanOutRecipients: fanOutRecipients,
		fanOutEmails:     fanOutEmails,
		importRows:       importRows,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveFanOut records the size and email outcomes of one broadcast.
func (m *MetricsService) ObserveFanOut(category string, recipients, emailSent, emailFailed int) {
	if m == nil {
		return
	}
	m.fanOutRecipients.WithLabelValues(category).Add(float64(recipients))
	m.fanOutEmails.WithLabelValues(category, "sent").Add(float64(emailSent))
	m.fanOutEmails.WithLabelValues(category, "failed").Add(float64(emailFailed))
}

// ObserveImport records how an import's rows were dispositioned.
func (m *MetricsService) ObserveImport(kind, disposition string, rows int) {
	if m == nil || rows == 0 {
		return
	}
	m.importRows.WithLabelValues(kind, disposition).Add(float64(rows))
}
