package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fxstats/internal/broker"
	"fxstats/internal/models"
	"fxstats/internal/repository"
)

// Ручные моки репозиториев и клиента брокера для тестов сервисного слоя.
// Поведение задается функциональными полями; незаданный метод возвращает
// "не найдено" или пустой результат.

type mockTradeRepo struct {
	createFunc             func(trade *models.Trade) error
	getByIDFunc            func(id int64) (*models.Trade, error)
	getByIntentIDFunc      func(intentID string) (*models.Trade, error)
	getByBrokerOrderIDFunc func(brokerOrderID string) (*models.Trade, error)
	getByBrokerTradeIDFunc func(brokerTradeID string) (*models.Trade, error)
	getByStatusFunc        func(status string) ([]*models.Trade, error)
	listClosedFunc         func(limit, offset int) ([]*models.Trade, error)
	updateFromBrokerFunc   func(trade *models.Trade) error
	updateCurrentPriceFunc func(id int64, price float64) error
	markClosedFunc         func(id int64, exitPrice, realizedPL float64, closeTime time.Time, closeReason string) error
	markCancelledFunc      func(id int64, reason string) error
	countByStatusFunc      func(status string) (int, error)
}

func (m *mockTradeRepo) Create(trade *models.Trade) error {
	if m.createFunc != nil {
		return m.createFunc(trade)
	}
	return nil
}

func (m *mockTradeRepo) GetByID(id int64) (*models.Trade, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(id)
	}
	return nil, repository.ErrTradeNotFound
}

func (m *mockTradeRepo) GetByIntentID(intentID string) (*models.Trade, error) {
	if m.getByIntentIDFunc != nil {
		return m.getByIntentIDFunc(intentID)
	}
	return nil, repository.ErrTradeNotFound
}

func (m *mockTradeRepo) GetByBrokerOrderID(brokerOrderID string) (*models.Trade, error) {
	if m.getByBrokerOrderIDFunc != nil {
		return m.getByBrokerOrderIDFunc(brokerOrderID)
	}
	return nil, repository.ErrTradeNotFound
}

func (m *mockTradeRepo) GetByBrokerTradeID(brokerTradeID string) (*models.Trade, error) {
	if m.getByBrokerTradeIDFunc != nil {
		return m.getByBrokerTradeIDFunc(brokerTradeID)
	}
	return nil, repository.ErrTradeNotFound
}

func (m *mockTradeRepo) GetByStatus(status string) ([]*models.Trade, error) {
	if m.getByStatusFunc != nil {
		return m.getByStatusFunc(status)
	}
	return nil, nil
}

func (m *mockTradeRepo) ListClosed(limit, offset int) ([]*models.Trade, error) {
	if m.listClosedFunc != nil {
		return m.listClosedFunc(limit, offset)
	}
	return nil, nil
}

func (m *mockTradeRepo) UpdateFromBroker(trade *models.Trade) error {
	if m.updateFromBrokerFunc != nil {
		return m.updateFromBrokerFunc(trade)
	}
	return nil
}

func (m *mockTradeRepo) UpdateCurrentPrice(id int64, price float64) error {
	if m.updateCurrentPriceFunc != nil {
		return m.updateCurrentPriceFunc(id, price)
	}
	return nil
}

func (m *mockTradeRepo) MarkClosed(id int64, exitPrice, realizedPL float64, closeTime time.Time, closeReason string) error {
	if m.markClosedFunc != nil {
		return m.markClosedFunc(id, exitPrice, realizedPL, closeTime, closeReason)
	}
	return nil
}

func (m *mockTradeRepo) MarkCancelled(id int64, reason string) error {
	if m.markCancelledFunc != nil {
		return m.markCancelledFunc(id, reason)
	}
	return nil
}

func (m *mockTradeRepo) CountByStatus(status string) (int, error) {
	if m.countByStatusFunc != nil {
		return m.countByStatusFunc(status)
	}
	return 0, nil
}

type mockAccountRepo struct {
	getByAccountIDFunc func(accountID string) (*models.AccountSummary, error)
	getLatestFunc      func() (*models.AccountSummary, error)
	upsertFunc         func(summary *models.AccountSummary) error
}

func (m *mockAccountRepo) GetByAccountID(accountID string) (*models.AccountSummary, error) {
	if m.getByAccountIDFunc != nil {
		return m.getByAccountIDFunc(accountID)
	}
	return nil, repository.ErrAccountNotFound
}

func (m *mockAccountRepo) GetLatest() (*models.AccountSummary, error) {
	if m.getLatestFunc != nil {
		return m.getLatestFunc()
	}
	return nil, repository.ErrAccountNotFound
}

func (m *mockAccountRepo) Upsert(summary *models.AccountSummary) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(summary)
	}
	return nil
}

type mockBrokerConfigRepo struct {
	createFunc    func(cfg *models.BrokerConfig) error
	getByIDFunc   func(id int64) (*models.BrokerConfig, error)
	getAllFunc    func() ([]*models.BrokerConfig, error)
	getActiveFunc func() (*models.BrokerConfig, error)
	updateFunc    func(cfg *models.BrokerConfig) error
	deleteFunc    func(id int64) error
	activateFunc  func(id int64) error
}

func (m *mockBrokerConfigRepo) Create(cfg *models.BrokerConfig) error {
	if m.createFunc != nil {
		return m.createFunc(cfg)
	}
	return nil
}

func (m *mockBrokerConfigRepo) GetByID(id int64) (*models.BrokerConfig, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(id)
	}
	return nil, repository.ErrBrokerConfigNotFound
}

func (m *mockBrokerConfigRepo) GetAll() ([]*models.BrokerConfig, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc()
	}
	return nil, nil
}

func (m *mockBrokerConfigRepo) GetActive() (*models.BrokerConfig, error) {
	if m.getActiveFunc != nil {
		return m.getActiveFunc()
	}
	return nil, repository.ErrNoActiveConfig
}

func (m *mockBrokerConfigRepo) Update(cfg *models.BrokerConfig) error {
	if m.updateFunc != nil {
		return m.updateFunc(cfg)
	}
	return nil
}

func (m *mockBrokerConfigRepo) Delete(id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(id)
	}
	return nil
}

func (m *mockBrokerConfigRepo) Activate(id int64) error {
	if m.activateFunc != nil {
		return m.activateFunc(id)
	}
	return nil
}

type mockBrokerClient struct {
	getPriceFunc          func(ctx context.Context, symbol string) (*broker.Price, error)
	getAccountSummaryFunc func(ctx context.Context) (*models.AccountSummary, error)
	getOrderFunc          func(ctx context.Context, orderID string) (*broker.OrderDetails, error)
	getTradeFunc          func(ctx context.Context, tradeID string) (*broker.TradeDetails, error)
}

func (m *mockBrokerClient) GetPrice(ctx context.Context, symbol string) (*broker.Price, error) {
	if m.getPriceFunc != nil {
		return m.getPriceFunc(ctx, symbol)
	}
	return nil, &broker.Error{StatusCode: 404, Message: "no price"}
}

func (m *mockBrokerClient) GetAccountSummary(ctx context.Context) (*models.AccountSummary, error) {
	if m.getAccountSummaryFunc != nil {
		return m.getAccountSummaryFunc(ctx)
	}
	return &models.AccountSummary{}, nil
}

func (m *mockBrokerClient) GetOrder(ctx context.Context, orderID string) (*broker.OrderDetails, error) {
	if m.getOrderFunc != nil {
		return m.getOrderFunc(ctx, orderID)
	}
	return nil, &broker.Error{StatusCode: 404, Message: "no order"}
}

func (m *mockBrokerClient) GetTrade(ctx context.Context, tradeID string) (*broker.TradeDetails, error) {
	if m.getTradeFunc != nil {
		return m.getTradeFunc(ctx, tradeID)
	}
	return nil, &broker.Error{StatusCode: 404, Message: "no trade"}
}

func (m *mockBrokerClient) Close() {}

// Проверяем, что моки реализуют интерфейсы
var (
	_ TradeRepositoryInterface        = (*mockTradeRepo)(nil)
	_ AccountRepositoryInterface      = (*mockAccountRepo)(nil)
	_ BrokerConfigRepositoryInterface = (*mockBrokerConfigRepo)(nil)
	_ broker.Client                   = (*mockBrokerClient)(nil)
)

// Вспомогательные конструкторы тестовых данных

func fptr(v float64) *float64 { return &v }

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return parsed
}

func tptr(v time.Time) *time.Time { return &v }

func closedTrade(id int64, pl float64, closeTime time.Time) *models.Trade {
	return &models.Trade{
		ID:         id,
		IntentID:   fmt.Sprintf("intent-%d", id),
		Symbol:     "EUR_USD",
		Direction:  models.DirectionLong,
		Units:      100,
		EntryPrice: 1.1000,
		RealizedPL: fptr(pl),
		Status:     models.StatusClosed,
		CreatedAt:  closeTime.Add(-2 * time.Hour),
		UpdatedAt:  closeTime,
		CloseTime:  tptr(closeTime),
	}
}
