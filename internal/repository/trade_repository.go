package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"fxstats/internal/models"
)

// Ошибки репозитория сделок
var (
	ErrTradeNotFound = errors.New("trade not found")
	ErrTradeExists   = errors.New("trade already exists")
)

// tradeColumns - полный набор колонок таблицы trades в порядке сканирования
const tradeColumns = `id, intent_id, symbol, direction, units, order_type, entry_price, current_price, exit_price, stop_loss, take_profit, realized_pl, financing, commission, status, ai_article, analysis_json, confidence, broker_order_id, broker_trade_id, created_at, updated_at, close_time, close_reason`

// tradeListColumns - колонки для списочных запросов: большие текстовые поля
// (ai_article, analysis_json) не выбираются, чтобы не гонять их на каждую
// страницу истории
const tradeListColumns = `id, intent_id, symbol, direction, units, order_type, entry_price, current_price, exit_price, stop_loss, take_profit, realized_pl, financing, commission, status, confidence, broker_order_id, broker_trade_id, created_at, updated_at, close_time, close_reason`

// TradeRepository - работа с таблицей trades
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository создает новый экземпляр репозитория
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// scanTrade сканирует полный набор колонок в модель
func scanTrade(row interface{ Scan(...interface{}) error }) (*models.Trade, error) {
	trade := &models.Trade{}
	var analysisJSON sql.NullString

	err := row.Scan(
		&trade.ID,
		&trade.IntentID,
		&trade.Symbol,
		&trade.Direction,
		&trade.Units,
		&trade.OrderType,
		&trade.EntryPrice,
		&trade.CurrentPrice,
		&trade.ExitPrice,
		&trade.StopLoss,
		&trade.TakeProfit,
		&trade.RealizedPL,
		&trade.Financing,
		&trade.Commission,
		&trade.Status,
		&trade.Article,
		&analysisJSON,
		&trade.Confidence,
		&trade.BrokerOrderID,
		&trade.BrokerTradeID,
		&trade.CreatedAt,
		&trade.UpdatedAt,
		&trade.CloseTime,
		&trade.CloseReason,
	)
	if err != nil {
		return nil, err
	}

	if analysisJSON.Valid {
		trade.AnalysisJSON = []byte(analysisJSON.String)
	}

	return trade, nil
}

// scanTradeListRow сканирует списочный набор колонок (без больших полей)
func scanTradeListRow(row interface{ Scan(...interface{}) error }) (*models.Trade, error) {
	trade := &models.Trade{}

	err := row.Scan(
		&trade.ID,
		&trade.IntentID,
		&trade.Symbol,
		&trade.Direction,
		&trade.Units,
		&trade.OrderType,
		&trade.EntryPrice,
		&trade.CurrentPrice,
		&trade.ExitPrice,
		&trade.StopLoss,
		&trade.TakeProfit,
		&trade.RealizedPL,
		&trade.Financing,
		&trade.Commission,
		&trade.Status,
		&trade.Confidence,
		&trade.BrokerOrderID,
		&trade.BrokerTradeID,
		&trade.CreatedAt,
		&trade.UpdatedAt,
		&trade.CloseTime,
		&trade.CloseReason,
	)
	if err != nil {
		return nil, err
	}

	return trade, nil
}

// Create создает новую сделку
func (r *TradeRepository) Create(trade *models.Trade) error {
	query := `
		INSERT INTO trades (intent_id, symbol, direction, units, order_type, entry_price, current_price, exit_price, stop_loss, take_profit, realized_pl, financing, commission, status, ai_article, analysis_json, confidence, broker_order_id, broker_trade_id, created_at, updated_at, close_time, close_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id`

	now := time.Now()
	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = now
	}
	trade.UpdatedAt = now

	// Нормализация на входе: ядро работает только с каноническими значениями
	trade.Status = models.NormalizeStatus(trade.Status)
	trade.Direction = models.NormalizeDirection(trade.Direction)

	var analysisJSON interface{}
	if len(trade.AnalysisJSON) > 0 {
		analysisJSON = string(trade.AnalysisJSON)
	}

	err := r.db.QueryRow(
		query,
		trade.IntentID,
		trade.Symbol,
		trade.Direction,
		trade.Units,
		trade.OrderType,
		trade.EntryPrice,
		trade.CurrentPrice,
		trade.ExitPrice,
		trade.StopLoss,
		trade.TakeProfit,
		trade.RealizedPL,
		trade.Financing,
		trade.Commission,
		trade.Status,
		trade.Article,
		analysisJSON,
		trade.Confidence,
		trade.BrokerOrderID,
		trade.BrokerTradeID,
		trade.CreatedAt,
		trade.UpdatedAt,
		trade.CloseTime,
		trade.CloseReason,
	).Scan(&trade.ID)

	if err != nil {
		if isTradeUniqueViolation(err) {
			return ErrTradeExists
		}
		return err
	}

	return nil
}

// GetByID возвращает сделку по ID
func (r *TradeRepository) GetByID(id int64) (*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`

	trade, err := scanTrade(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}

	return trade, nil
}

// GetByIntentID возвращает сделку по идентификатору торгового намерения
func (r *TradeRepository) GetByIntentID(intentID string) (*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE intent_id = $1`

	trade, err := scanTrade(r.db.QueryRow(query, intentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}

	return trade, nil
}

// GetByBrokerOrderID возвращает сделку по ID ордера на стороне брокера
func (r *TradeRepository) GetByBrokerOrderID(brokerOrderID string) (*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE broker_order_id = $1`

	trade, err := scanTrade(r.db.QueryRow(query, brokerOrderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}

	return trade, nil
}

// GetByBrokerTradeID возвращает сделку по ID трейда на стороне брокера
func (r *TradeRepository) GetByBrokerTradeID(brokerTradeID string) (*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE broker_trade_id = $1`

	trade, err := scanTrade(r.db.QueryRow(query, brokerTradeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}

	return trade, nil
}

// GetByStatus возвращает сделки с указанным статусом
//
// Порядок по created_at: стабильный для открытых позиций и отложенных
// ордеров, хронологическая сортировка для аналитики выполняется в service
// слое по составному ключу.
func (r *TradeRepository) GetByStatus(status string) ([]*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE status = $1 ORDER BY created_at, id`

	rows, err := r.db.Query(query, models.NormalizeStatus(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}

// ListClosed возвращает страницу закрытых сделок для истории
//
// Большие текстовые поля (ai_article, analysis_json) не выбираются.
// Сортировка: последние закрытые первыми.
func (r *TradeRepository) ListClosed(limit, offset int) ([]*models.Trade, error) {
	query := `
		SELECT ` + tradeListColumns + `
		FROM trades
		WHERE status = $1
		ORDER BY COALESCE(close_time, updated_at, created_at) DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(query, models.StatusClosed, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		trade, err := scanTradeListRow(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}

// UpdateFromBroker обновляет поля сделки данными из события брокера
func (r *TradeRepository) UpdateFromBroker(trade *models.Trade) error {
	query := `
		UPDATE trades
		SET units = $1, entry_price = $2, current_price = $3, status = $4, broker_order_id = $5, broker_trade_id = $6, updated_at = $7
		WHERE id = $8`

	trade.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		query,
		trade.Units,
		trade.EntryPrice,
		trade.CurrentPrice,
		models.NormalizeStatus(trade.Status),
		trade.BrokerOrderID,
		trade.BrokerTradeID,
		trade.UpdatedAt,
		trade.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTradeNotFound
	}

	return nil
}

// UpdateCurrentPrice обновляет кэшированную котировку открытой позиции
func (r *TradeRepository) UpdateCurrentPrice(id int64, price float64) error {
	query := `
		UPDATE trades
		SET current_price = $1, updated_at = $2
		WHERE id = $3`

	result, err := r.db.Exec(query, price, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTradeNotFound
	}

	return nil
}

// MarkClosed переводит сделку в статус closed с итоговыми данными закрытия
func (r *TradeRepository) MarkClosed(id int64, exitPrice, realizedPL float64, closeTime time.Time, closeReason string) error {
	query := `
		UPDATE trades
		SET status = $1, exit_price = $2, realized_pl = $3, close_time = $4, close_reason = $5, updated_at = $6
		WHERE id = $7`

	result, err := r.db.Exec(query, models.StatusClosed, exitPrice, realizedPL, closeTime, closeReason, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTradeNotFound
	}

	return nil
}

// MarkCancelled переводит отложенный ордер в статус cancelled
func (r *TradeRepository) MarkCancelled(id int64, reason string) error {
	query := `
		UPDATE trades
		SET status = $1, close_reason = $2, updated_at = $3
		WHERE id = $4`

	result, err := r.db.Exec(query, models.StatusCancelled, reason, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTradeNotFound
	}

	return nil
}

// CountByStatus возвращает количество сделок с указанным статусом
func (r *TradeRepository) CountByStatus(status string) (int, error) {
	query := `SELECT COUNT(*) FROM trades WHERE status = $1`

	var count int
	err := r.db.QueryRow(query, models.NormalizeStatus(status)).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// isTradeUniqueViolation проверяет, является ли ошибка нарушением UNIQUE constraint
func isTradeUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "23505")
}
