package httpapi

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"trade_ledger/internal/models"
	ledger "trade_ledger/internal/modules/ledger/service"
	"trade_ledger/internal/modules/ledger/store"
	"trade_ledger/pkg/logger"
	"trade_ledger/pkg/tracing"

	"github.com/bytedance/sonic"
)

const (
	maxBodyBytes  = 1 << 20
	maxWindowDays = 366
)

// Ingest — вход событий в леджер.
type Ingest interface {
	Handle(ctx context.Context, ev models.Event) (ledger.Result, error)
}

// StatsReader — чтение агрегатов.
type StatsReader interface {
	Daily(ctx context.Context, day time.Time) (models.DailyStats, error)
	Window(ctx context.Context, days int, reference time.Time) (models.WindowStats, error)
}

// Handlers — вебхук и read-only API. Всё, кроме вебхука, леджер не меняет.
type Handlers struct {
	ingest     Ingest
	trades     store.Reader
	stats      StatsReader
	loc        *time.Location
	windowDays int
	now        func() time.Time
}

func NewHandlers(ingest Ingest, trades store.Reader, stats StatsReader, loc *time.Location, windowDays int, now func() time.Time) *Handlers {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Handlers{
		ingest:     ingest,
		trades:     trades,
		stats:      stats,
		loc:        loc,
		windowDays: windowDays,
		now:        now,
	}
}

type statusResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type tradesResponse struct {
	Total  int            `json:"total"`
	Trades []models.Trade `json:"trades"`
}

// Webhook — POST /webhook.
func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFrom(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "can not read body")
		return
	}

	ev, err := ledger.DecodeEvent(body, h.now())
	if err != nil {
		logger.Warn("webhook [%s] rejected: %v", reqID, err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.ingest.Handle(r.Context(), ev); err != nil {
		if ledger.IsMalformed(err) {
			logger.Warn("webhook [%s] rejected: %v", reqID, err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("webhook [%s] trace=%s %s: %v", reqID, tracing.TraceID(r.Context()), ev.EventSymbol(), err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	logger.Info("webhook [%s] accepted %T for %s", reqID, ev, ev.EventSymbol())
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

// RecentTrades — GET /api/trades?limit=N.
func (h *Handlers) RecentTrades(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = store.NormalizeLimit(n)
	}

	trades, err := h.trades.ListRecent(r.Context(), limit)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeTrades(w, trades)
}

// OpenTrades — GET /api/trades/open.
func (h *Handlers) OpenTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.trades.ListOpen(r.Context())
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeTrades(w, trades)
}

// DailyStats — GET /api/stats?day=YYYY-MM-DD, по умолчанию сегодня.
func (h *Handlers) DailyStats(w http.ResponseWriter, r *http.Request) {
	day := h.now()
	if raw := r.URL.Query().Get("day"); raw != "" {
		d, err := time.ParseInLocation(models.DayLayout, raw, h.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
			return
		}
		day = d
	}

	s, err := h.stats.Daily(r.Context(), day)
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// WindowStats — GET /api/stats/window?days=N, окно заканчивается сегодня.
func (h *Handlers) WindowStats(w http.ResponseWriter, r *http.Request) {
	days := h.windowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxWindowDays {
			writeError(w, http.StatusBadRequest, "days must be in [1, 366]")
			return
		}
		days = n
	}

	s, err := h.stats.Window(r.Context(), days, h.now())
	if err != nil {
		h.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handlers) internal(w http.ResponseWriter, r *http.Request, err error) {
	logger.Error("%s %s [%s]: %v", r.Method, r.URL.Path, RequestIDFrom(r.Context()), err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeTrades(w http.ResponseWriter, trades []models.Trade) {
	if trades == nil {
		trades = []models.Trade{}
	}
	writeJSON(w, http.StatusOK, tradesResponse{Total: len(trades), Trades: trades})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"encode failed"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
