package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"fxstats/internal/broker"
	"fxstats/internal/metrics"
	"fxstats/internal/models"
	"fxstats/internal/repository"
)

// SyncService синхронизирует журнал сделок с состоянием брокера.
//
// Источник событий - webhook от ingestion-процесса, который слушает
// транзакционный поток брокера:
// - ORDER_FILL: лимитный ордер исполнен, позиция открыта
// - ORDER_CANCEL: отложенный ордер отменен
// - TRADE_CLOSE: позиция закрыта (TP/SL/ручное закрытие)
//
// После каждого события обновляется снимок сводки счета: балансы и маржа
// меняются при каждом исполнении.
type SyncService struct {
	tradeRepo   TradeRepositoryInterface
	accountRepo AccountRepositoryInterface
	broker      broker.Client

	logger *zap.Logger
}

// NewSyncService создает новый экземпляр SyncService
func NewSyncService(tradeRepo TradeRepositoryInterface, accountRepo AccountRepositoryInterface, brokerClient broker.Client, logger *zap.Logger) *SyncService {
	return &SyncService{
		tradeRepo:   tradeRepo,
		accountRepo: accountRepo,
		broker:      brokerClient,
		logger:      logger,
	}
}

// HandleEvent обрабатывает одно webhook-событие.
//
// Событие для неизвестной записи журнала не считается ошибкой: ingestion
// может прислать событие по сделке, открытой вне этого сервиса. Такое
// событие пропускается с пометкой в логе.
func (s *SyncService) HandleEvent(ctx context.Context, event *models.WebhookEvent) error {
	var err error

	switch event.Type {
	case models.EventOrderFill:
		err = s.handleOrderFill(ctx, event)
	case models.EventOrderCancel:
		err = s.handleOrderCancel(event)
	case models.EventTradeClose:
		err = s.handleTradeClose(ctx, event)
	default:
		metrics.RecordWebhookEvent(event.Type, "error")
		return fmt.Errorf("%w: %q", ErrUnknownEventType, event.Type)
	}

	if err != nil {
		if errors.Is(err, repository.ErrTradeNotFound) {
			s.logger.Info("webhook event for unknown trade, skipping",
				zap.String("type", event.Type),
				zap.String("order_id", event.OrderID),
				zap.String("trade_id", event.TradeID),
			)
			metrics.RecordWebhookEvent(event.Type, "skipped")
			return nil
		}
		metrics.RecordWebhookEvent(event.Type, "error")
		return err
	}

	metrics.RecordWebhookEvent(event.Type, "ok")

	// Снимок счета обновляется после каждого события; отказ синхронизации
	// не отменяет уже примененное событие
	if err := s.SyncAccountSummary(ctx); err != nil {
		s.logger.Warn("account summary sync after event failed", zap.Error(err))
	}

	return nil
}

// handleOrderFill: лимитный ордер исполнен - запись переходит в open
// с фактической ценой и объемом исполнения
func (s *SyncService) handleOrderFill(ctx context.Context, event *models.WebhookEvent) error {
	trade, err := s.tradeRepo.GetByBrokerOrderID(event.OrderID)
	if err != nil {
		return err
	}

	trade.Status = models.StatusOpen
	if event.TradeID != "" {
		trade.BrokerTradeID = event.TradeID
	}
	if event.Price > 0 {
		trade.EntryPrice = event.Price
	}
	if event.Units != 0 {
		trade.Units = event.Units
	}

	// Сверка с брокером: webhook может нести неполные данные
	if s.broker != nil && event.TradeID != "" {
		if details, derr := s.broker.GetTrade(ctx, event.TradeID); derr == nil {
			trade.EntryPrice = details.Price
			if details.Units != 0 {
				trade.Units = details.Units
			}
		} else {
			s.logger.Warn("trade details lookup failed, using webhook payload",
				zap.String("trade_id", event.TradeID),
				zap.Error(derr),
			)
		}
	}

	if err := s.tradeRepo.UpdateFromBroker(trade); err != nil {
		return err
	}

	s.logger.Info("order filled",
		zap.String("intent_id", trade.IntentID),
		zap.String("symbol", trade.Symbol),
		zap.Float64("entry_price", trade.EntryPrice),
	)
	return nil
}

// handleOrderCancel: отложенный ордер отменен до исполнения
func (s *SyncService) handleOrderCancel(event *models.WebhookEvent) error {
	trade, err := s.tradeRepo.GetByBrokerOrderID(event.OrderID)
	if err != nil {
		return err
	}

	reason := event.Reason
	if reason == "" {
		reason = "CANCELLED"
	}

	if err := s.tradeRepo.MarkCancelled(trade.ID, reason); err != nil {
		return err
	}

	s.logger.Info("order cancelled",
		zap.String("intent_id", trade.IntentID),
		zap.String("reason", reason),
	)
	return nil
}

// handleTradeClose: позиция закрыта - фиксируются цена выхода,
// реализованный P/L, время и причина закрытия
func (s *SyncService) handleTradeClose(ctx context.Context, event *models.WebhookEvent) error {
	trade, err := s.tradeRepo.GetByBrokerTradeID(event.TradeID)
	if err != nil {
		return err
	}

	exitPrice := event.Price
	realizedPL := event.RealizedPL

	// Сверка с брокером: итоговый P/L точнее webhook-события
	if s.broker != nil {
		if details, derr := s.broker.GetTrade(ctx, event.TradeID); derr == nil {
			if details.RealizedPL != 0 {
				realizedPL = details.RealizedPL
			}
		} else {
			s.logger.Warn("trade details lookup failed, using webhook payload",
				zap.String("trade_id", event.TradeID),
				zap.Error(derr),
			)
		}
	}

	reason := event.Reason
	if reason == "" {
		reason = "CLOSED"
	}

	if err := s.tradeRepo.MarkClosed(trade.ID, exitPrice, realizedPL, event.EventTime(), reason); err != nil {
		return err
	}

	s.logger.Info("trade closed",
		zap.String("intent_id", trade.IntentID),
		zap.String("symbol", trade.Symbol),
		zap.Float64("realized_pl", realizedPL),
		zap.String("reason", reason),
	)
	return nil
}

// SyncAccountSummary подтягивает сводку счета от брокера и сохраняет ее
func (s *SyncService) SyncAccountSummary(ctx context.Context) error {
	if s.broker == nil {
		return ErrBrokerNotConfigured
	}

	summary, err := s.broker.GetAccountSummary(ctx)
	if err != nil {
		return fmt.Errorf("fetching account summary: %w", err)
	}

	if err := s.accountRepo.Upsert(summary); err != nil {
		return fmt.Errorf("storing account summary: %w", err)
	}

	s.logger.Debug("account summary synced",
		zap.String("account_id", summary.AccountID),
		zap.Float64("balance", summary.Balance),
	)
	return nil
}
