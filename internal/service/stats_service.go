package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"fxstats/internal/metrics"
	"fxstats/internal/models"
	"fxstats/internal/repository"
	"fxstats/pkg/utils"
)

// StatsService предоставляет аналитику по журналу сделок.
//
// Функции:
// - GetAccountStats: полная агрегированная статистика счета
// - GetEquityCurve: восстановленная кривая капитала
// - GetTradeHistory: постраничная история закрытых сделок
//
// Каждый запрос - полный пересчет по актуальному журналу, без
// инкрементальных кэшей: журнал правится внешним ingestion-процессом,
// и только полный пересчет гарантированно консистентен.
type StatsService struct {
	tradeRepo   TradeRepositoryInterface
	accountRepo AccountRepositoryInterface

	initialBalance float64
	historyLimit   int

	logger *zap.Logger
}

// NewStatsService создает новый экземпляр StatsService
func NewStatsService(tradeRepo TradeRepositoryInterface, accountRepo AccountRepositoryInterface, initialBalance float64, historyLimit int, logger *zap.Logger) *StatsService {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &StatsService{
		tradeRepo:      tradeRepo,
		accountRepo:    accountRepo,
		initialBalance: initialBalance,
		historyLimit:   historyLimit,
		logger:         logger,
	}
}

// sortChronological сортирует сделки по каноническому хронологическому
// ключу (CloseTime -> UpdatedAt -> CreatedAt), ничьи разрешаются по ID.
//
// Агрегатор и построитель equity-кривой обязаны использовать один порядок:
// серии побед и просадка зависят от последовательности, и расхождение
// порядков дало бы разные результаты на одних данных.
func sortChronological(trades []*models.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		ki, kj := trades[i].ChronoKey(), trades[j].ChronoKey()
		if ki.Equal(kj) {
			return trades[i].ID < trades[j].ID
		}
		return ki.Before(kj)
	})
}

// tradeAggregates - результат одной свертки закрытых сделок
type tradeAggregates struct {
	count   int
	totalPL float64

	wins   int
	losses int

	grossProfit float64
	grossLoss   float64 // по модулю

	longTotal  int
	longWins   int
	shortTotal int
	shortWins  int

	maxWinStreak  int
	maxLossStreak int

	maxDrawdown float64 // %

	holdingHoursSum float64
	holdingCount    int
}

// aggregateClosedTrades выполняет линейную свертку отсортированных
// закрытых сделок.
//
// Вся арифметика на полной точности; округление только при сборке ответа.
func aggregateClosedTrades(trades []*models.Trade, startingBalance float64) tradeAggregates {
	agg := tradeAggregates{count: len(trades)}

	current := startingBalance
	peak := startingBalance
	winStreak, lossStreak := 0, 0

	for _, t := range trades {
		pl, _ := ResolvePL(t)
		agg.totalPL += pl

		longSide := t.Direction != models.DirectionShort
		if longSide {
			agg.longTotal++
		} else {
			agg.shortTotal++
		}

		switch {
		case pl > 0:
			agg.wins++
			agg.grossProfit += pl
			if longSide {
				agg.longWins++
			} else {
				agg.shortWins++
			}
			winStreak++
			lossStreak = 0
			if winStreak > agg.maxWinStreak {
				agg.maxWinStreak = winStreak
			}
		case pl < 0:
			agg.losses++
			agg.grossLoss += -pl
			lossStreak++
			winStreak = 0
			if lossStreak > agg.maxLossStreak {
				agg.maxLossStreak = lossStreak
			}
		default:
			// Сделка в ноль не трогает ни победные, ни проигрышные серии
		}

		// Просадка: пик не опускается, просадка измеряется от пика
		current += pl
		if current > peak {
			peak = current
		}
		if dd := utils.DrawdownPercent(peak, current); dd > agg.maxDrawdown {
			agg.maxDrawdown = dd
		}

		// Время удержания: только сделки с обоими таймстампами
		if hours, ok := utils.HoldingHours(t.CreatedAt, t.CloseTime); ok {
			agg.holdingHoursSum += hours
			agg.holdingCount++
		}
	}

	return agg
}

// GetAccountStats возвращает агрегированную статистику счета.
//
// Снимок счета (балансы, маржа, счетчики) берется из последней сохраненной
// сводки; ее баланс служит и стартовым балансом свертки. При отсутствии
// сводки стартовый баланс - сконфигурированный дефолт, балансы
// восстанавливаются из него и суммарного P/L журнала, а стоимость открытых
// позиций - как сумма entry_price * |units| по открытым сделкам.
func (s *StatsService) GetAccountStats(ctx context.Context) (*models.AccountStats, error) {
	start := time.Now()

	summary, err := s.latestSummary()
	if err != nil {
		return nil, err
	}

	closed, err := s.tradeRepo.GetByStatus(models.StatusClosed)
	if err != nil {
		return nil, err
	}

	sortChronological(closed)
	agg := aggregateClosedTrades(closed, s.startingBalance(summary))

	stats := &models.AccountStats{
		WinRate:           utils.Round2(utils.SafePercent(float64(agg.wins), float64(agg.count))),
		LongWinRate:       utils.Round2(utils.SafePercent(float64(agg.longWins), float64(agg.longTotal))),
		ShortWinRate:      utils.Round2(utils.SafePercent(float64(agg.shortWins), float64(agg.shortTotal))),
		ProfitFactor:      utils.Round2(utils.SafeDivide(agg.grossProfit, agg.grossLoss)),
		MaxDrawdown:       utils.Round2(agg.maxDrawdown),
		ConsecutiveWins:   agg.maxWinStreak,
		ConsecutiveLosses: agg.maxLossStreak,
		AvgHoldingTime:    utils.Round2(utils.SafeDivide(agg.holdingHoursSum, float64(agg.holdingCount))),
	}
	// Исторически оба поля отдают одно значение
	stats.ProfitLossRatio = stats.ProfitFactor

	if err := s.fillSnapshotFields(stats, summary, agg.totalPL); err != nil {
		return nil, err
	}

	metrics.ObserveStatsCompute(time.Since(start).Seconds(), agg.count)

	return stats, nil
}

// latestSummary возвращает последнюю сводку счета или nil, когда она
// еще не сохранялась; любая другая ошибка хранилища пробрасывается
func (s *StatsService) latestSummary() (*models.AccountSummary, error) {
	summary, err := s.accountRepo.GetLatest()
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return summary, nil
}

// startingBalance - стартовый баланс свертки: баланс снимка счета,
// либо сконфигурированный дефолт при его отсутствии
func (s *StatsService) startingBalance(summary *models.AccountSummary) float64 {
	if summary != nil {
		return summary.Balance
	}
	return s.initialBalance
}

// fillSnapshotFields заполняет поля снимка счета.
//
// Балансы, маржа и счетчики открытых сделок/ордеров берутся из сводки как
// есть; только при ее отсутствии они восстанавливаются из журнала.
func (s *StatsService) fillSnapshotFields(stats *models.AccountStats, summary *models.AccountSummary, totalPL float64) error {
	if summary != nil {
		stats.TotalBalance = utils.Round2(summary.Balance)
		stats.TotalPositionValue = utils.Round2(summary.PositionValue)
		stats.UnrealizedPL = utils.Round2(summary.UnrealizedPL)
		stats.MarginUsed = utils.Round2(summary.MarginUsed)
		stats.MarginAvailable = utils.Round2(summary.MarginAvailable)
		stats.OpenTradeCount = summary.OpenTradeCount
		stats.OpenOrderCount = summary.OpenOrderCount
		return nil
	}

	// Сводки еще нет: баланс и счетчики восстанавливаем из журнала
	stats.TotalBalance = utils.Round2(s.initialBalance + totalPL)

	positionValue, err := s.openPositionValue()
	if err != nil {
		return err
	}
	stats.TotalPositionValue = utils.Round2(positionValue)

	openCount, err := s.tradeRepo.CountByStatus(models.StatusOpen)
	if err != nil {
		return err
	}
	pendingCount, err := s.tradeRepo.CountByStatus(models.StatusPending)
	if err != nil {
		return err
	}
	stats.OpenTradeCount = openCount
	stats.OpenOrderCount = pendingCount

	s.logger.Debug("account summary missing, using ledger-derived balances",
		zap.Float64("balance", stats.TotalBalance),
	)
	return nil
}

// openPositionValue считает стоимость открытых позиций как
// sum(entry_price * |units|) - прокси, когда сводки счета нет
func (s *StatsService) openPositionValue() (float64, error) {
	open, err := s.tradeRepo.GetByStatus(models.StatusOpen)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, t := range open {
		units := t.Units
		if units < 0 {
			units = -units
		}
		total += t.EntryPrice * units
	}
	return total, nil
}

// GetEquityCurve возвращает восстановленную кривую капитала.
//
// Кривая строится по той же отсортированной последовательности закрытых
// сделок и от того же стартового баланса (снимок счета, либо дефолт),
// что и агрегатор: ведущая синтетическая точка со стартовым балансом,
// затем одна точка на каждую сделку.
func (s *StatsService) GetEquityCurve(ctx context.Context) (*models.EquityCurve, error) {
	summary, err := s.latestSummary()
	if err != nil {
		return nil, err
	}

	closed, err := s.tradeRepo.GetByStatus(models.StatusClosed)
	if err != nil {
		return nil, err
	}

	sortChronological(closed)

	return buildEquityCurve(closed, s.startingBalance(summary)), nil
}

// buildEquityCurve строит кривую по отсортированным закрытым сделкам
func buildEquityCurve(sorted []*models.Trade, startingBalance float64) *models.EquityCurve {
	curve := &models.EquityCurve{Data: []models.EquityPoint{}}
	if len(sorted) == 0 {
		return curve
	}

	// Ведущая точка: состояние счета до первой сделки
	curve.Data = append(curve.Data, models.EquityPoint{
		Date:             sorted[0].CreatedAt,
		CumulativeProfit: 0,
		Balance:          utils.Round2(startingBalance),
	})

	// Накопление на полной точности, округление каждой точки при эмиссии
	cumulative := 0.0
	for _, t := range sorted {
		pl, _ := ResolvePL(t)
		cumulative += pl

		curve.Data = append(curve.Data, models.EquityPoint{
			Date:             t.ChronoKey(),
			CumulativeProfit: utils.Round2(cumulative),
			Balance:          utils.Round2(startingBalance + cumulative),
		})
	}

	return curve
}

// GetTradeHistory возвращает страницу истории закрытых сделок
// (последние закрытые первыми) и общее количество закрытых сделок.
func (s *StatsService) GetTradeHistory(ctx context.Context, limit, offset int) ([]*models.TradeHistoryEntry, int, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	if offset < 0 {
		offset = 0
	}

	trades, err := s.tradeRepo.ListClosed(limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.tradeRepo.CountByStatus(models.StatusClosed)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]*models.TradeHistoryEntry, 0, len(trades))
	for _, t := range trades {
		entries = append(entries, HistoryEntry(t))
	}

	return entries, total, nil
}
