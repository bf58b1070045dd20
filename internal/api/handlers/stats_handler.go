package handlers

import (
	"net/http"
	"strconv"

	"fxstats/internal/models"
	"fxstats/internal/service"
)

// StatsHandler обрабатывает HTTP запросы аналитики счета.
//
// Endpoints:
// - GET /api/v1/analytics/stats - агрегированная статистика счета
// - GET /api/v1/analytics/equity-curve - кривая капитала
// - GET /api/v1/analytics/history?limit=&offset= - история закрытых сделок
type StatsHandler struct {
	statsService service.StatsServiceInterface
}

// NewStatsHandler создает новый StatsHandler с внедрением зависимостей
func NewStatsHandler(statsService service.StatsServiceInterface) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// GetStats возвращает агрегированную статистику счета.
//
// GET /api/v1/analytics/stats
//
// Response 200 OK:
//
//	{
//	  "total_balance": 104321.56,
//	  "total_position_value": 5500.00,
//	  "unrealized_pl": 123.46,
//	  "margin_used": 110.00,
//	  "margin_available": 104211.50,
//	  "open_trade_count": 3,
//	  "open_order_count": 2,
//	  "win_rate": 55.26,
//	  "profit_loss_ratio": 1.87,
//	  "long_win_rate": 60.00,
//	  "short_win_rate": 47.83,
//	  "max_drawdown": 12.45,
//	  "profit_factor": 1.87,
//	  "consecutive_losses": 4,
//	  "consecutive_wins": 7,
//	  "avg_holding_time": 14.25
//	}
//
// Response 500 Internal Server Error:
//
//	{"error": "failed to compute stats", "details": "..."}
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.GetAccountStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats", err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// GetEquityCurve возвращает восстановленную кривую капитала.
//
// GET /api/v1/analytics/equity-curve
//
// Response 200 OK:
//
//	{
//	  "data": [
//	    {"date": "2026-01-05T10:00:00Z", "cumulative_profit": 0, "balance": 100000},
//	    {"date": "2026-01-05T14:30:00Z", "cumulative_profit": 120.5, "balance": 100120.5}
//	  ]
//	}
//
// Пустой журнал дает {"data": []}, не null.
func (h *StatsHandler) GetEquityCurve(w http.ResponseWriter, r *http.Request) {
	curve, err := h.statsService.GetEquityCurve(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build equity curve", err)
		return
	}

	writeJSON(w, http.StatusOK, curve)
}

// historyResponse - страница истории закрытых сделок
type historyResponse struct {
	Trades []*models.TradeHistoryEntry `json:"trades"`
	Total  int                         `json:"total"`
	Limit  int                         `json:"limit"`
	Offset int                         `json:"offset"`
}

// GetHistory возвращает страницу истории закрытых сделок.
//
// GET /api/v1/analytics/history?limit=50&offset=0
//
// Query Parameters:
// - limit (optional): размер страницы, дефолт и максимум задаются конфигом
// - offset (optional): смещение, по умолчанию 0
//
// Response 200 OK:
//
//	{
//	  "trades": [
//	    {"id": 12, "intent_id": "a1b2", "symbol": "EUR_USD", "realized_pl": 12.34, ...}
//	  ],
//	  "total": 150,
//	  "limit": 50,
//	  "offset": 0
//	}
func (h *StatsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 0)
	offset := parseIntParam(r, "offset", 0)

	entries, total, err := h.statsService.GetTradeHistory(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load trade history", err)
		return
	}

	// Пустая страница сериализуется как [], а не null
	if entries == nil {
		entries = []*models.TradeHistoryEntry{}
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Trades: entries,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// parseIntParam читает целочисленный query-параметр с дефолтом
func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
