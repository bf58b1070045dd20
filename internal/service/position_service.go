package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"fxstats/internal/broker"
	"fxstats/internal/metrics"
	"fxstats/internal/models"
	"fxstats/pkg/utils"
)

// PositionService оценивает открытые позиции и отложенные ордера
// по актуальным котировкам.
//
// Котировки запрашиваются у брокера параллельно - по одной горутине на
// уникальный символ. Отказ по одному символу деградирует только его:
// live котировка -> кэшированная current_price из журнала -> цена входа.
// Сервис никогда не возвращает ошибку из-за недоступности котировок.
type PositionService struct {
	tradeRepo TradeRepositoryInterface
	broker    broker.Client

	leverage     float64
	priceTimeout time.Duration

	logger *zap.Logger
}

// NewPositionService создает новый экземпляр PositionService
func NewPositionService(tradeRepo TradeRepositoryInterface, brokerClient broker.Client, leverage float64, priceTimeout time.Duration, logger *zap.Logger) *PositionService {
	if priceTimeout <= 0 {
		priceTimeout = 5 * time.Second
	}
	return &PositionService{
		tradeRepo:    tradeRepo,
		broker:       brokerClient,
		leverage:     leverage,
		priceTimeout: priceTimeout,
		logger:       logger,
	}
}

// fetchPrices запрашивает котировки по всем уникальным символам параллельно.
//
// Возвращает карту symbol -> mid price только для успешных запросов;
// решение о fallback принимает вызывающий код per-trade.
func (s *PositionService) fetchPrices(ctx context.Context, trades []*models.Trade) map[string]float64 {
	symbols := make(map[string]struct{})
	for _, t := range trades {
		symbols[t.Symbol] = struct{}{}
	}
	if len(symbols) == 0 || s.broker == nil {
		return map[string]float64{}
	}

	ctx, cancel := context.WithTimeout(ctx, s.priceTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		prices = make(map[string]float64, len(symbols))
	)

	for symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			price, err := s.broker.GetPrice(ctx, symbol)
			if err != nil {
				s.logger.Warn("price lookup failed, falling back to cached price",
					zap.String("symbol", symbol),
					zap.Error(err),
				)
				return
			}

			mu.Lock()
			prices[symbol] = price.Mid()
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	return prices
}

// resolvePrice выбирает цену для оценки сделки:
// live котировка -> кэшированная current_price -> цена входа
func resolvePrice(t *models.Trade, livePrices map[string]float64) float64 {
	if price, ok := livePrices[t.Symbol]; ok && price > 0 {
		metrics.RecordPriceLookup("live")
		return price
	}
	if t.CurrentPrice != nil && *t.CurrentPrice > 0 {
		metrics.RecordPriceLookup("cached")
		return *t.CurrentPrice
	}
	metrics.RecordPriceLookup("entry_fallback")
	return t.EntryPrice
}

// GetOpenPositions возвращает открытые позиции с плавающим P/L и маржой
func (s *PositionService) GetOpenPositions(ctx context.Context) ([]*models.PositionView, error) {
	open, err := s.tradeRepo.GetByStatus(models.StatusOpen)
	if err != nil {
		return nil, err
	}

	livePrices := s.fetchPrices(ctx, open)

	views := make([]*models.PositionView, 0, len(open))
	for _, t := range open {
		price := resolvePrice(t, livePrices)

		views = append(views, &models.PositionView{
			ID:           t.ID,
			IntentID:     t.IntentID,
			Symbol:       t.Symbol,
			Direction:    t.Direction,
			Units:        t.Units,
			EntryPrice:   t.EntryPrice,
			StopLoss:     t.StopLoss,
			TakeProfit:   t.TakeProfit,
			CurrentPrice: price,
			UnrealizedPL: utils.Round2(UnrealizedPL(t, price)),
			Margin:       utils.Round2(RequiredMargin(t, price, s.leverage)),
			CreatedAt:    t.CreatedAt,
		})
	}

	return views, nil
}

// persistPrice кэширует полученную live котировку в журнале, чтобы
// списки и fallback-ветки видели последнюю известную цену.
// Отказ записи не влияет на ответ
func (s *PositionService) persistPrice(t *models.Trade, price float64) {
	if t.CurrentPrice != nil && *t.CurrentPrice == price {
		return
	}
	if err := s.tradeRepo.UpdateCurrentPrice(t.ID, price); err != nil {
		s.logger.Warn("failed to cache current price",
			zap.Int64("trade_id", t.ID),
			zap.String("symbol", t.Symbol),
			zap.Error(err),
		)
	}
}

// GetOpenPosition возвращает детальный вид открытой позиции по intent_id.
// Полученная live котировка записывается обратно в журнал
func (s *PositionService) GetOpenPosition(ctx context.Context, intentID string) (*models.TradeDetail, error) {
	trade, err := s.tradeRepo.GetByIntentID(intentID)
	if err != nil {
		return nil, err
	}
	if trade.Status != models.StatusOpen {
		return nil, ErrNotOpen
	}

	livePrices := s.fetchPrices(ctx, []*models.Trade{trade})
	price := resolvePrice(trade, livePrices)
	if live, ok := livePrices[trade.Symbol]; ok && live > 0 {
		s.persistPrice(trade, live)
	}

	return &models.TradeDetail{
		Trade:         *trade,
		ResolvedPrice: price,
		UnrealizedPL:  utils.Round2(UnrealizedPL(trade, price)),
		Margin:        utils.Round2(RequiredMargin(trade, price, s.leverage)),
	}, nil
}

// GetPendingOrders возвращает неисполненные лимитные ордера.
//
// Плавающего P/L до исполнения нет, но актуальная котировка нужна для
// оценки расстояния до цены входа; отказ деградирует к кэшированной цене
// из журнала (если ingestion ее проставил).
func (s *PositionService) GetPendingOrders(ctx context.Context) ([]*models.PendingOrderView, error) {
	pending, err := s.tradeRepo.GetByStatus(models.StatusPending)
	if err != nil {
		return nil, err
	}

	livePrices := s.fetchPrices(ctx, pending)

	views := make([]*models.PendingOrderView, 0, len(pending))
	for _, t := range pending {
		view := &models.PendingOrderView{
			ID:           t.ID,
			IntentID:     t.IntentID,
			Symbol:       t.Symbol,
			Units:        t.Units,
			EntryPrice:   t.EntryPrice,
			StopLoss:     t.StopLoss,
			TakeProfit:   t.TakeProfit,
			CurrentPrice: t.CurrentPrice,
			CreatedAt:    t.CreatedAt,
		}
		if live, ok := livePrices[t.Symbol]; ok && live > 0 {
			view.CurrentPrice = utils.FloatPtr(live)
		}
		views = append(views, view)
	}

	return views, nil
}

// GetPendingOrder возвращает детальный вид отложенного ордера по intent_id.
// Полученная live котировка записывается обратно в журнал
func (s *PositionService) GetPendingOrder(ctx context.Context, intentID string) (*models.TradeDetail, error) {
	trade, err := s.tradeRepo.GetByIntentID(intentID)
	if err != nil {
		return nil, err
	}
	if trade.Status != models.StatusPending {
		return nil, ErrNotPending
	}

	livePrices := s.fetchPrices(ctx, []*models.Trade{trade})
	price := resolvePrice(trade, livePrices)
	if live, ok := livePrices[trade.Symbol]; ok && live > 0 {
		s.persistPrice(trade, live)
	}

	return &models.TradeDetail{
		Trade:         *trade,
		ResolvedPrice: price,
	}, nil
}
