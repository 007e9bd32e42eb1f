package httpapi

import (
	"net/http"

	"trade_ledger/internal/metrics"

	"github.com/gorilla/mux"
)

// NewRouter собирает все маршруты процесса.
//
//	POST /webhook              — события от источника сигналов
//	GET  /api/trades?limit=N   — последние сделки
//	GET  /api/trades/open      — открытые сделки
//	GET  /api/stats?day=       — сводка за день
//	GET  /api/stats/window?days=N
//	GET  /ws                   — лента алертов
//	GET  /metrics
//
// Пробы health регистрирует сам модуль health.
func NewRouter(h *Handlers, feed http.Handler) *mux.Router {
	router := mux.NewRouter()

	router.Use(Recovery)
	router.Use(RequestID)
	router.Use(metrics.Middleware)

	router.HandleFunc("/webhook", h.Webhook).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/trades", h.RecentTrades).Methods(http.MethodGet)
	api.HandleFunc("/trades/open", h.OpenTrades).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.DailyStats).Methods(http.MethodGet)
	api.HandleFunc("/stats/window", h.WindowStats).Methods(http.MethodGet)

	if feed != nil {
		router.Handle("/ws", feed).Methods(http.MethodGet)
	}
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return router
}
