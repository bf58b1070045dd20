package handlers

import (
	"context"
	"errors"

	"fxstats/internal/models"
	"fxstats/internal/service"
)

// Ручные моки сервисных интерфейсов для тестов handlers.
// Поведение задается функциональными полями.

var errBoom = errors.New("boom")

type mockStatsService struct {
	getAccountStatsFunc func(ctx context.Context) (*models.AccountStats, error)
	getEquityCurveFunc  func(ctx context.Context) (*models.EquityCurve, error)
	getTradeHistoryFunc func(ctx context.Context, limit, offset int) ([]*models.TradeHistoryEntry, int, error)
}

func (m *mockStatsService) GetAccountStats(ctx context.Context) (*models.AccountStats, error) {
	if m.getAccountStatsFunc != nil {
		return m.getAccountStatsFunc(ctx)
	}
	return &models.AccountStats{}, nil
}

func (m *mockStatsService) GetEquityCurve(ctx context.Context) (*models.EquityCurve, error) {
	if m.getEquityCurveFunc != nil {
		return m.getEquityCurveFunc(ctx)
	}
	return &models.EquityCurve{Data: []models.EquityPoint{}}, nil
}

func (m *mockStatsService) GetTradeHistory(ctx context.Context, limit, offset int) ([]*models.TradeHistoryEntry, int, error) {
	if m.getTradeHistoryFunc != nil {
		return m.getTradeHistoryFunc(ctx, limit, offset)
	}
	return nil, 0, nil
}

type mockPositionService struct {
	getOpenPositionsFunc func(ctx context.Context) ([]*models.PositionView, error)
	getOpenPositionFunc  func(ctx context.Context, intentID string) (*models.TradeDetail, error)
	getPendingOrdersFunc func(ctx context.Context) ([]*models.PendingOrderView, error)
	getPendingOrderFunc  func(ctx context.Context, intentID string) (*models.TradeDetail, error)
}

func (m *mockPositionService) GetOpenPositions(ctx context.Context) ([]*models.PositionView, error) {
	if m.getOpenPositionsFunc != nil {
		return m.getOpenPositionsFunc(ctx)
	}
	return nil, nil
}

func (m *mockPositionService) GetOpenPosition(ctx context.Context, intentID string) (*models.TradeDetail, error) {
	if m.getOpenPositionFunc != nil {
		return m.getOpenPositionFunc(ctx, intentID)
	}
	return nil, service.ErrNotOpen
}

func (m *mockPositionService) GetPendingOrders(ctx context.Context) ([]*models.PendingOrderView, error) {
	if m.getPendingOrdersFunc != nil {
		return m.getPendingOrdersFunc(ctx)
	}
	return nil, nil
}

func (m *mockPositionService) GetPendingOrder(ctx context.Context, intentID string) (*models.TradeDetail, error) {
	if m.getPendingOrderFunc != nil {
		return m.getPendingOrderFunc(ctx, intentID)
	}
	return nil, service.ErrNotPending
}

type mockSyncService struct {
	handleEventFunc        func(ctx context.Context, event *models.WebhookEvent) error
	syncAccountSummaryFunc func(ctx context.Context) error
}

func (m *mockSyncService) HandleEvent(ctx context.Context, event *models.WebhookEvent) error {
	if m.handleEventFunc != nil {
		return m.handleEventFunc(ctx, event)
	}
	return nil
}

func (m *mockSyncService) SyncAccountSummary(ctx context.Context) error {
	if m.syncAccountSummaryFunc != nil {
		return m.syncAccountSummaryFunc(ctx)
	}
	return nil
}

type mockCredentialService struct {
	createFunc    func(req *service.CreateConfigRequest) (*models.BrokerConfig, error)
	listFunc      func() ([]*models.BrokerConfig, error)
	getFunc       func(id int64) (*models.BrokerConfig, error)
	getActiveFunc func() (*models.BrokerConfig, error)
	updateFunc    func(id int64, req *service.CreateConfigRequest) (*models.BrokerConfig, error)
	deleteFunc    func(id int64) error
	activateFunc  func(id int64) error
}

func (m *mockCredentialService) Create(req *service.CreateConfigRequest) (*models.BrokerConfig, error) {
	if m.createFunc != nil {
		return m.createFunc(req)
	}
	return &models.BrokerConfig{}, nil
}

func (m *mockCredentialService) List() ([]*models.BrokerConfig, error) {
	if m.listFunc != nil {
		return m.listFunc()
	}
	return nil, nil
}

func (m *mockCredentialService) Get(id int64) (*models.BrokerConfig, error) {
	if m.getFunc != nil {
		return m.getFunc(id)
	}
	return &models.BrokerConfig{ID: id}, nil
}

func (m *mockCredentialService) GetActive() (*models.BrokerConfig, error) {
	if m.getActiveFunc != nil {
		return m.getActiveFunc()
	}
	return &models.BrokerConfig{}, nil
}

func (m *mockCredentialService) Update(id int64, req *service.CreateConfigRequest) (*models.BrokerConfig, error) {
	if m.updateFunc != nil {
		return m.updateFunc(id, req)
	}
	return &models.BrokerConfig{ID: id}, nil
}

func (m *mockCredentialService) Delete(id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(id)
	}
	return nil
}

func (m *mockCredentialService) Activate(id int64) error {
	if m.activateFunc != nil {
		return m.activateFunc(id)
	}
	return nil
}

// Проверяем, что моки реализуют интерфейсы
var (
	_ service.StatsServiceInterface      = (*mockStatsService)(nil)
	_ service.PositionServiceInterface   = (*mockPositionService)(nil)
	_ service.SyncServiceInterface       = (*mockSyncService)(nil)
	_ service.CredentialServiceInterface = (*mockCredentialService)(nil)
)
