package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"fxstats/internal/models"
	"fxstats/internal/repository"
	"fxstats/internal/service"
)

// PositionHandler обрабатывает HTTP запросы открытых позиций и
// отложенных ордеров.
//
// Endpoints:
// - GET /api/v1/positions/open - список открытых позиций с плавающим P/L
// - GET /api/v1/positions/open/{intent_id} - детальный вид позиции
// - GET /api/v1/orders/pending - список неисполненных лимитных ордеров
// - GET /api/v1/orders/pending/{intent_id} - детальный вид ордера
type PositionHandler struct {
	positionService service.PositionServiceInterface
}

// NewPositionHandler создает новый PositionHandler с внедрением зависимостей
func NewPositionHandler(positionService service.PositionServiceInterface) *PositionHandler {
	return &PositionHandler{
		positionService: positionService,
	}
}

// GetOpenPositions возвращает открытые позиции, оцененные по актуальным
// котировкам.
//
// GET /api/v1/positions/open
//
// Response 200 OK:
//
//	[
//	  {
//	    "id": 12,
//	    "intent_id": "a1b2",
//	    "symbol": "EUR_USD",
//	    "direction": "long",
//	    "units": 1000,
//	    "entry_price": 1.1000,
//	    "current_price": 1.1205,
//	    "unrealized_pl": 20.50,
//	    "margin": 22.41,
//	    "created_at": "2026-01-05T10:00:00Z"
//	  }
//	]
//
// Недоступность котировок не является ошибкой: для таких позиций
// используется кэшированная цена или цена входа.
func (h *PositionHandler) GetOpenPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positionService.GetOpenPositions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load open positions", err)
		return
	}

	if positions == nil {
		positions = []*models.PositionView{}
	}
	writeJSON(w, http.StatusOK, positions)
}

// GetOpenPosition возвращает детальный вид открытой позиции.
//
// GET /api/v1/positions/open/{intent_id}
//
// Response 404 Not Found: позиция не найдена или не в статусе open.
func (h *PositionHandler) GetOpenPosition(w http.ResponseWriter, r *http.Request) {
	intentID := mux.Vars(r)["intent_id"]

	detail, err := h.positionService.GetOpenPosition(r.Context(), intentID)
	if err != nil {
		if errors.Is(err, repository.ErrTradeNotFound) || errors.Is(err, service.ErrNotOpen) {
			writeError(w, http.StatusNotFound, "open position not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load position", err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// GetPendingOrders возвращает неисполненные лимитные ордера.
//
// GET /api/v1/orders/pending
func (h *PositionHandler) GetPendingOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.positionService.GetPendingOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load pending orders", err)
		return
	}

	if orders == nil {
		orders = []*models.PendingOrderView{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetPendingOrder возвращает детальный вид отложенного ордера.
//
// GET /api/v1/orders/pending/{intent_id}
//
// Response 404 Not Found: ордер не найден или уже не в статусе pending.
func (h *PositionHandler) GetPendingOrder(w http.ResponseWriter, r *http.Request) {
	intentID := mux.Vars(r)["intent_id"]

	detail, err := h.positionService.GetPendingOrder(r.Context(), intentID)
	if err != nil {
		if errors.Is(err, repository.ErrTradeNotFound) || errors.Is(err, service.ErrNotPending) {
			writeError(w, http.StatusNotFound, "pending order not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load pending order", err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}
