package service

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"fxstats/internal/broker"
	"fxstats/internal/models"
	"fxstats/pkg/utils"
)

func newTestPositionService(tradeRepo *mockTradeRepo, brokerClient broker.Client) *PositionService {
	return NewPositionService(tradeRepo, brokerClient, 50, time.Second, utils.NewNopLogger())
}

func openTrade(id int64, symbol string, units, entryPrice float64) *models.Trade {
	return &models.Trade{
		ID:         id,
		IntentID:   "intent-open",
		Symbol:     symbol,
		Direction:  models.DirectionLong,
		Units:      units,
		EntryPrice: entryPrice,
		Status:     models.StatusOpen,
		CreatedAt:  time.Now().Add(-time.Hour),
	}
}

func TestGetOpenPositionsLivePrices(t *testing.T) {
	trades := []*models.Trade{
		openTrade(1, "EUR_USD", 1000, 1.1000),
		openTrade(2, "GBP_USD", 500, 1.2500),
	}

	var calls int32
	brokerClient := &mockBrokerClient{
		getPriceFunc: func(ctx context.Context, symbol string) (*broker.Price, error) {
			atomic.AddInt32(&calls, 1)
			switch symbol {
			case "EUR_USD":
				return &broker.Price{Symbol: symbol, Bid: 1.1199, Ask: 1.1201}, nil
			case "GBP_USD":
				return &broker.Price{Symbol: symbol, Bid: 1.2599, Ask: 1.2601}, nil
			}
			return nil, errors.New("unexpected symbol")
		},
	}
	repo := &mockTradeRepo{
		getByStatusFunc: func(status string) ([]*models.Trade, error) { return trades, nil },
	}
	svc := newTestPositionService(repo, brokerClient)

	views, err := svc.GetOpenPositions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(views) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(views))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("price lookups = %d, want one per unique symbol", got)
	}

	eur := views[0]
	if math.Abs(eur.CurrentPrice-1.12) > 1e-9 {
		t.Errorf("CurrentPrice = %v, want mid 1.12", eur.CurrentPrice)
	}
	// (1.12 - 1.10) * 1000 = 20
	if eur.UnrealizedPL != 20.0 {
		t.Errorf("UnrealizedPL = %v, want 20.0", eur.UnrealizedPL)
	}
	// |1000 * 1.12| / 50 = 22.4
	if eur.Margin != 22.4 {
		t.Errorf("Margin = %v, want 22.4", eur.Margin)
	}
}

func TestGetOpenPositionsPriceDegradation(t *testing.T) {
	cached := openTrade(1, "EUR_USD", 1000, 1.1000)
	cached.CurrentPrice = fptr(1.1150)
	bare := openTrade(2, "GBP_USD", 500, 1.2500)

	brokerClient := &mockBrokerClient{
		getPriceFunc: func(ctx context.Context, symbol string) (*broker.Price, error) {
			return nil, &broker.Error{StatusCode: 503, Message: "pricing unavailable"}
		},
	}
	repo := &mockTradeRepo{
		getByStatusFunc: func(status string) ([]*models.Trade, error) {
			return []*models.Trade{cached, bare}, nil
		},
	}
	svc := newTestPositionService(repo, brokerClient)

	views, err := svc.GetOpenPositions(context.Background())
	if err != nil {
		t.Fatalf("price failures must not fail the listing: %v", err)
	}

	if views[0].CurrentPrice != 1.1150 {
		t.Errorf("cached fallback price = %v, want 1.1150", views[0].CurrentPrice)
	}
	// Цена входа как последний fallback: плавающий P/L получается нулевым
	if views[1].CurrentPrice != 1.2500 {
		t.Errorf("entry fallback price = %v, want 1.2500", views[1].CurrentPrice)
	}
	if views[1].UnrealizedPL != 0 {
		t.Errorf("UnrealizedPL at entry fallback = %v, want 0", views[1].UnrealizedPL)
	}
}

func TestGetOpenPositionsNilBroker(t *testing.T) {
	cached := openTrade(1, "EUR_USD", 1000, 1.1000)
	cached.CurrentPrice = fptr(1.1150)

	repo := &mockTradeRepo{
		getByStatusFunc: func(status string) ([]*models.Trade, error) {
			return []*models.Trade{cached}, nil
		},
	}
	svc := newTestPositionService(repo, nil)

	views, err := svc.GetOpenPositions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if views[0].CurrentPrice != 1.1150 {
		t.Errorf("CurrentPrice = %v, want cached 1.1150", views[0].CurrentPrice)
	}
}

func TestGetOpenPosition(t *testing.T) {
	trade := openTrade(1, "EUR_USD", 1000, 1.1000)

	brokerClient := &mockBrokerClient{
		getPriceFunc: func(ctx context.Context, symbol string) (*broker.Price, error) {
			return &broker.Price{Symbol: symbol, Bid: 1.1199, Ask: 1.1201}, nil
		},
	}
	var persistedID int64
	var persistedPrice float64
	repo := &mockTradeRepo{
		getByIntentIDFunc: func(intentID string) (*models.Trade, error) { return trade, nil },
		updateCurrentPriceFunc: func(id int64, price float64) error {
			persistedID, persistedPrice = id, price
			return nil
		},
	}
	svc := newTestPositionService(repo, brokerClient)

	detail, err := svc.GetOpenPosition(context.Background(), "intent-open")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(detail.ResolvedPrice-1.12) > 1e-9 {
		t.Errorf("ResolvedPrice = %v, want 1.12", detail.ResolvedPrice)
	}
	if detail.UnrealizedPL != 20.0 {
		t.Errorf("UnrealizedPL = %v, want 20.0", detail.UnrealizedPL)
	}
	// Полученная live котировка кэшируется в журнале
	if persistedID != 1 || math.Abs(persistedPrice-1.12) > 1e-9 {
		t.Errorf("cached price = %v for trade %d, want 1.12 for trade 1", persistedPrice, persistedID)
	}
}

func TestGetOpenPositionPersistFailureIgnored(t *testing.T) {
	trade := openTrade(1, "EUR_USD", 1000, 1.1000)

	brokerClient := &mockBrokerClient{
		getPriceFunc: func(ctx context.Context, symbol string) (*broker.Price, error) {
			return &broker.Price{Symbol: symbol, Bid: 1.1199, Ask: 1.1201}, nil
		},
	}
	repo := &mockTradeRepo{
		getByIntentIDFunc: func(intentID string) (*models.Trade, error) { return trade, nil },
		updateCurrentPriceFunc: func(id int64, price float64) error {
			return errors.New("write failed")
		},
	}
	svc := newTestPositionService(repo, brokerClient)

	detail, err := svc.GetOpenPosition(context.Background(), "intent-open")
	if err != nil {
		t.Fatalf("cache write failure must not fail the detail view: %v", err)
	}
	if math.Abs(detail.ResolvedPrice-1.12) > 1e-9 {
		t.Errorf("ResolvedPrice = %v, want 1.12", detail.ResolvedPrice)
	}
}

func TestGetOpenPositionWrongStatus(t *testing.T) {
	closed := closedTrade(1, 10, time.Now())

	repo := &mockTradeRepo{
		getByIntentIDFunc: func(intentID string) (*models.Trade, error) { return closed, nil },
	}
	svc := newTestPositionService(repo, &mockBrokerClient{})

	if _, err := svc.GetOpenPosition(context.Background(), "intent-1"); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestGetPendingOrders(t *testing.T) {
	pending := openTrade(1, "EUR_USD", 1000, 1.0900)
	pending.Status = models.StatusPending

	var priceCalls int32
	brokerClient := &mockBrokerClient{
		getPriceFunc: func(ctx context.Context, symbol string) (*broker.Price, error) {
			atomic.AddInt32(&priceCalls, 1)
			return &broker.Price{Symbol: symbol, Bid: 1.1, Ask: 1.1}, nil
		},
	}
	repo := &mockTradeRepo{
		getByStatusFunc: func(status string) ([]*models.Trade, error) {
			if status != models.StatusPending {
				t.Errorf("queried status %q, want pending", status)
			}
			return []*models.Trade{pending}, nil
		},
	}
	svc := newTestPositionService(repo, brokerClient)

	views, err := svc.GetPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(views) != 1 {
		t.Fatalf("expected 1 order, got %d", len(views))
	}
	// Список отложенных ордеров тоже запрашивает live котировки
	if got := atomic.LoadInt32(&priceCalls); got != 1 {
		t.Errorf("price lookups = %d, want one per unique symbol", got)
	}
	if views[0].CurrentPrice == nil || math.Abs(*views[0].CurrentPrice-1.1) > 1e-9 {
		t.Errorf("CurrentPrice = %v, want live 1.1", views[0].CurrentPrice)
	}
}

func TestGetPendingOrdersPriceDegradation(t *testing.T) {
	pending := openTrade(1, "EUR_USD", 1000, 1.0900)
	pending.Status = models.StatusPending
	pending.CurrentPrice = fptr(1.0950)

	brokerClient := &mockBrokerClient{
		getPriceFunc: func(ctx context.Context, symbol string) (*broker.Price, error) {
			return nil, &broker.Error{StatusCode: 503, Message: "pricing unavailable"}
		},
	}
	repo := &mockTradeRepo{
		getByStatusFunc: func(status string) ([]*models.Trade, error) {
			return []*models.Trade{pending}, nil
		},
	}
	svc := newTestPositionService(repo, brokerClient)

	views, err := svc.GetPendingOrders(context.Background())
	if err != nil {
		t.Fatalf("price failures must not fail the listing: %v", err)
	}

	// Без live котировки остается кэшированная цена из журнала
	if views[0].CurrentPrice == nil || *views[0].CurrentPrice != 1.0950 {
		t.Errorf("CurrentPrice = %v, want cached 1.0950", views[0].CurrentPrice)
	}
}

func TestGetPendingOrderWrongStatus(t *testing.T) {
	open := openTrade(1, "EUR_USD", 1000, 1.1000)

	repo := &mockTradeRepo{
		getByIntentIDFunc: func(intentID string) (*models.Trade, error) { return open, nil },
	}
	svc := newTestPositionService(repo, &mockBrokerClient{})

	if _, err := svc.GetPendingOrder(context.Background(), "intent-open"); !errors.Is(err, ErrNotPending) {
		t.Errorf("expected ErrNotPending, got %v", err)
	}
}

func TestGetPendingOrderResolvedPrice(t *testing.T) {
	pending := openTrade(1, "EUR_USD", 1000, 1.0900)
	pending.Status = models.StatusPending

	repo := &mockTradeRepo{
		getByIntentIDFunc: func(intentID string) (*models.Trade, error) { return pending, nil },
	}
	svc := newTestPositionService(repo, nil)

	detail, err := svc.GetPendingOrder(context.Background(), "intent-open")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.ResolvedPrice != 1.0900 {
		t.Errorf("ResolvedPrice = %v, want entry price 1.0900", detail.ResolvedPrice)
	}
}
