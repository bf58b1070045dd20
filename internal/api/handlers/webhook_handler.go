package handlers

import (
	"errors"
	"net/http"

	"fxstats/internal/models"
	"fxstats/internal/service"
)

// WebhookHandler принимает события журнала сделок от ingestion-процесса.
//
// Endpoints:
// - POST /api/v1/webhook/broker - событие транзакционного потока брокера
// - POST /api/v1/webhook/sync/account - принудительная синхронизация сводки
type WebhookHandler struct {
	syncService service.SyncServiceInterface
}

// NewWebhookHandler создает новый WebhookHandler с внедрением зависимостей
func NewWebhookHandler(syncService service.SyncServiceInterface) *WebhookHandler {
	return &WebhookHandler{
		syncService: syncService,
	}
}

// HandleBrokerEvent обрабатывает одно webhook-событие.
//
// POST /api/v1/webhook/broker
//
// Request:
//
//	{
//	  "type": "TRADE_CLOSE",
//	  "account_id": "001-001-1234567-001",
//	  "trade_id": "200",
//	  "price": 1.1234,
//	  "realized_pl": 12.34,
//	  "reason": "STOP_LOSS",
//	  "time": "2026-03-10T15:04:05.000000000Z"
//	}
//
// Response 200 OK: событие применено (или пропущено для неизвестной сделки).
// Response 400 Bad Request: невалидный JSON или неизвестный тип события.
func (h *WebhookHandler) HandleBrokerEvent(w http.ResponseWriter, r *http.Request) {
	var event models.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload", err)
		return
	}

	if err := h.syncService.HandleEvent(r.Context(), &event); err != nil {
		if errors.Is(err, service.ErrUnknownEventType) {
			writeError(w, http.StatusBadRequest, "unknown event type", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to apply event", err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Message: "event processed"})
}

// SyncAccount принудительно обновляет сводку счета от брокера.
//
// POST /api/v1/webhook/sync/account
//
// Response 503 Service Unavailable: клиент брокера не сконфигурирован.
func (h *WebhookHandler) SyncAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.syncService.SyncAccountSummary(r.Context()); err != nil {
		if errors.Is(err, service.ErrBrokerNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "broker not configured", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to sync account summary", err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Message: "account summary synced"})
}
