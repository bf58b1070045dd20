package service

import (
	"context"
	"errors"
	"time"

	"fxstats/internal/models"
	"fxstats/internal/repository"
)

// Ошибки сервисного слоя
var (
	// ErrNotOpen - запись журнала найдена, но позиция не в статусе open
	ErrNotOpen = errors.New("trade is not an open position")

	// ErrNotPending - запись журнала найдена, но ордер не в статусе pending
	ErrNotPending = errors.New("trade is not a pending order")

	// ErrUnknownEventType - webhook-событие неизвестного типа
	ErrUnknownEventType = errors.New("unknown webhook event type")

	// ErrBrokerNotConfigured - клиент брокера не сконфигурирован
	ErrBrokerNotConfigured = errors.New("broker client is not configured")

	// ErrInvalidConfig - невалидный запрос конфигурации брокера
	ErrInvalidConfig = errors.New("invalid broker config")
)

// TradeRepositoryInterface определяет методы для работы с журналом сделок
type TradeRepositoryInterface interface {
	Create(trade *models.Trade) error
	GetByID(id int64) (*models.Trade, error)
	GetByIntentID(intentID string) (*models.Trade, error)
	GetByBrokerOrderID(brokerOrderID string) (*models.Trade, error)
	GetByBrokerTradeID(brokerTradeID string) (*models.Trade, error)
	GetByStatus(status string) ([]*models.Trade, error)
	ListClosed(limit, offset int) ([]*models.Trade, error)
	UpdateFromBroker(trade *models.Trade) error
	UpdateCurrentPrice(id int64, price float64) error
	MarkClosed(id int64, exitPrice, realizedPL float64, closeTime time.Time, closeReason string) error
	MarkCancelled(id int64, reason string) error
	CountByStatus(status string) (int, error)
}

// AccountRepositoryInterface определяет методы для работы со сводками счета
type AccountRepositoryInterface interface {
	GetByAccountID(accountID string) (*models.AccountSummary, error)
	GetLatest() (*models.AccountSummary, error)
	Upsert(summary *models.AccountSummary) error
}

// BrokerConfigRepositoryInterface определяет методы для работы с
// конфигурациями брокера
type BrokerConfigRepositoryInterface interface {
	Create(cfg *models.BrokerConfig) error
	GetByID(id int64) (*models.BrokerConfig, error)
	GetAll() ([]*models.BrokerConfig, error)
	GetActive() (*models.BrokerConfig, error)
	Update(cfg *models.BrokerConfig) error
	Delete(id int64) error
	Activate(id int64) error
}

// StatsServiceInterface определяет методы аналитики для HTTP handlers
type StatsServiceInterface interface {
	GetAccountStats(ctx context.Context) (*models.AccountStats, error)
	GetEquityCurve(ctx context.Context) (*models.EquityCurve, error)
	GetTradeHistory(ctx context.Context, limit, offset int) ([]*models.TradeHistoryEntry, int, error)
}

// PositionServiceInterface определяет методы оценки позиций для HTTP handlers
type PositionServiceInterface interface {
	GetOpenPositions(ctx context.Context) ([]*models.PositionView, error)
	GetOpenPosition(ctx context.Context, intentID string) (*models.TradeDetail, error)
	GetPendingOrders(ctx context.Context) ([]*models.PendingOrderView, error)
	GetPendingOrder(ctx context.Context, intentID string) (*models.TradeDetail, error)
}

// SyncServiceInterface определяет методы синхронизации для HTTP handlers
type SyncServiceInterface interface {
	HandleEvent(ctx context.Context, event *models.WebhookEvent) error
	SyncAccountSummary(ctx context.Context) error
}

// CredentialServiceInterface определяет методы управления конфигурациями
// брокера для HTTP handlers
type CredentialServiceInterface interface {
	Create(req *CreateConfigRequest) (*models.BrokerConfig, error)
	List() ([]*models.BrokerConfig, error)
	Get(id int64) (*models.BrokerConfig, error)
	GetActive() (*models.BrokerConfig, error)
	Update(id int64, req *CreateConfigRequest) (*models.BrokerConfig, error)
	Delete(id int64) error
	Activate(id int64) error
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var (
	_ TradeRepositoryInterface        = (*repository.TradeRepository)(nil)
	_ AccountRepositoryInterface      = (*repository.AccountRepository)(nil)
	_ BrokerConfigRepositoryInterface = (*repository.BrokerConfigRepository)(nil)
)

// Проверяем, что сервисы реализуют свои интерфейсы
var (
	_ StatsServiceInterface      = (*StatsService)(nil)
	_ PositionServiceInterface   = (*PositionService)(nil)
	_ SyncServiceInterface       = (*SyncService)(nil)
	_ CredentialServiceInterface = (*CredentialService)(nil)
)
