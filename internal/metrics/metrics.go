// Package metrics — Prometheus-коллекторы леджера.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsIngested — входящие события по action (entry|exit) и результату.
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trade_ledger_events_ingested_total",
		Help: "Lifecycle events processed by the ledger",
	}, []string{"action", "result"})

	// AlertsDelivered — доставки по виду сообщения и исходу (ok|failed).
	AlertsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trade_ledger_alerts_total",
		Help: "Alert deliveries by kind and outcome",
	}, []string{"kind", "outcome"})

	ReportsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trade_ledger_reports_fired_total",
		Help: "Daily reports fired by the scheduler",
	})

	MenuTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trade_ledger_menu_transitions_total",
		Help: "Interactive menu transitions by target view",
	}, []string{"view"})

	OpenTrades = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trade_ledger_open_trades",
		Help: "Open trades seen on the last ingestion",
	})

	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trade_ledger_websocket_clients",
		Help: "Connected live feed clients",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trade_ledger_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trade_ledger_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware пишет счётчик и латентность запросов. Путь берём из шаблона
// маршрута mux, чтобы не раздувать кардинальность.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
