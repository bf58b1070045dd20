package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fxstats/internal/models"
	"fxstats/internal/service"
)

func TestHandleBrokerEvent(t *testing.T) {
	var gotEvent *models.WebhookEvent
	svc := &mockSyncService{
		handleEventFunc: func(ctx context.Context, event *models.WebhookEvent) error {
			gotEvent = event
			return nil
		},
	}
	handler := NewWebhookHandler(svc)

	body := `{
		"type": "TRADE_CLOSE",
		"trade_id": "200",
		"price": 1.1234,
		"realized_pl": 12.34,
		"reason": "STOP_LOSS"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/broker", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleBrokerEvent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if gotEvent == nil {
		t.Fatal("event was not passed to the service")
	}
	if gotEvent.Type != models.EventTradeClose || gotEvent.TradeID != "200" {
		t.Errorf("event = %+v", gotEvent)
	}
	if gotEvent.RealizedPL != 12.34 {
		t.Errorf("realized_pl = %v, want 12.34", gotEvent.RealizedPL)
	}
}

func TestHandleBrokerEventInvalidJSON(t *testing.T) {
	handler := NewWebhookHandler(&mockSyncService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/broker", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	handler.HandleBrokerEvent(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleBrokerEventUnknownType(t *testing.T) {
	svc := &mockSyncService{
		handleEventFunc: func(ctx context.Context, event *models.WebhookEvent) error {
			return service.ErrUnknownEventType
		},
	}
	handler := NewWebhookHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/broker", strings.NewReader(`{"type":"MARGIN_CALL"}`))
	rec := httptest.NewRecorder()
	handler.HandleBrokerEvent(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleBrokerEventServiceError(t *testing.T) {
	svc := &mockSyncService{
		handleEventFunc: func(ctx context.Context, event *models.WebhookEvent) error {
			return errBoom
		},
	}
	handler := NewWebhookHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/broker", strings.NewReader(`{"type":"ORDER_FILL"}`))
	rec := httptest.NewRecorder()
	handler.HandleBrokerEvent(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestSyncAccount(t *testing.T) {
	var called bool
	svc := &mockSyncService{
		syncAccountSummaryFunc: func(ctx context.Context) error {
			called = true
			return nil
		},
	}
	handler := NewWebhookHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/sync/account", nil)
	rec := httptest.NewRecorder()
	handler.SyncAccount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !called {
		t.Error("SyncAccountSummary was not called")
	}
}

func TestSyncAccountNoBroker(t *testing.T) {
	svc := &mockSyncService{
		syncAccountSummaryFunc: func(ctx context.Context) error {
			return service.ErrBrokerNotConfigured
		},
	}
	handler := NewWebhookHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/sync/account", nil)
	rec := httptest.NewRecorder()
	handler.SyncAccount(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
