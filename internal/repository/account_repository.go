package repository

import (
	"database/sql"
	"errors"
	"time"

	"fxstats/internal/models"
)

// Ошибки репозитория сводки счета
var (
	ErrAccountNotFound = errors.New("account summary not found")
)

// AccountRepository - работа с таблицей account_summaries
//
// Хранится последний снимок сводки по каждому счету брокера.
// Снимок обновляется webhook-событием или фоновой синхронизацией.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository создает новый экземпляр репозитория
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByAccountID возвращает сводку по ID счета
func (r *AccountRepository) GetByAccountID(accountID string) (*models.AccountSummary, error) {
	query := `
		SELECT account_id, currency, balance, nav, unrealized_pl, pl, resettable_pl, margin_used, margin_available, margin_call_percent, position_value, open_trade_count, open_order_count, last_transaction_id, updated_at
		FROM account_summaries
		WHERE account_id = $1`

	summary := &models.AccountSummary{}
	err := r.db.QueryRow(query, accountID).Scan(
		&summary.AccountID,
		&summary.Currency,
		&summary.Balance,
		&summary.NAV,
		&summary.UnrealizedPL,
		&summary.PL,
		&summary.ResettablePL,
		&summary.MarginUsed,
		&summary.MarginAvailable,
		&summary.MarginCallPercent,
		&summary.PositionValue,
		&summary.OpenTradeCount,
		&summary.OpenOrderCount,
		&summary.LastTransactionID,
		&summary.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return summary, nil
}

// GetLatest возвращает последнюю обновленную сводку
//
// Используется когда сервис работает с единственным счетом и ID счета
// в запросе не указан.
func (r *AccountRepository) GetLatest() (*models.AccountSummary, error) {
	query := `
		SELECT account_id, currency, balance, nav, unrealized_pl, pl, resettable_pl, margin_used, margin_available, margin_call_percent, position_value, open_trade_count, open_order_count, last_transaction_id, updated_at
		FROM account_summaries
		ORDER BY updated_at DESC
		LIMIT 1`

	summary := &models.AccountSummary{}
	err := r.db.QueryRow(query).Scan(
		&summary.AccountID,
		&summary.Currency,
		&summary.Balance,
		&summary.NAV,
		&summary.UnrealizedPL,
		&summary.PL,
		&summary.ResettablePL,
		&summary.MarginUsed,
		&summary.MarginAvailable,
		&summary.MarginCallPercent,
		&summary.PositionValue,
		&summary.OpenTradeCount,
		&summary.OpenOrderCount,
		&summary.LastTransactionID,
		&summary.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return summary, nil
}

// Upsert вставляет или обновляет сводку счета
func (r *AccountRepository) Upsert(summary *models.AccountSummary) error {
	query := `
		INSERT INTO account_summaries (account_id, currency, balance, nav, unrealized_pl, pl, resettable_pl, margin_used, margin_available, margin_call_percent, position_value, open_trade_count, open_order_count, last_transaction_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (account_id) DO UPDATE
		SET currency = EXCLUDED.currency,
			balance = EXCLUDED.balance,
			nav = EXCLUDED.nav,
			unrealized_pl = EXCLUDED.unrealized_pl,
			pl = EXCLUDED.pl,
			resettable_pl = EXCLUDED.resettable_pl,
			margin_used = EXCLUDED.margin_used,
			margin_available = EXCLUDED.margin_available,
			margin_call_percent = EXCLUDED.margin_call_percent,
			position_value = EXCLUDED.position_value,
			open_trade_count = EXCLUDED.open_trade_count,
			open_order_count = EXCLUDED.open_order_count,
			last_transaction_id = EXCLUDED.last_transaction_id,
			updated_at = EXCLUDED.updated_at`

	summary.UpdatedAt = time.Now()

	_, err := r.db.Exec(
		query,
		summary.AccountID,
		summary.Currency,
		summary.Balance,
		summary.NAV,
		summary.UnrealizedPL,
		summary.PL,
		summary.ResettablePL,
		summary.MarginUsed,
		summary.MarginAvailable,
		summary.MarginCallPercent,
		summary.PositionValue,
		summary.OpenTradeCount,
		summary.OpenOrderCount,
		summary.LastTransactionID,
		summary.UpdatedAt,
	)

	return err
}
