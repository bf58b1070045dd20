package models

import "time"

// AccountSummary представляет кэшированный снимок состояния счета у брокера
// (account_summary таблица).
//
// Снимок обновляется ingestion-процессом после каждого webhook-события.
// Аналитическое ядро читает его как есть и НЕ пересчитывает: баланс,
// маржа и счетчики открытых позиций - ответственность брокера.
type AccountSummary struct {
	ID                int64     `json:"id" db:"id"`
	AccountID         string    `json:"account_id" db:"account_id"`
	Currency          string    `json:"currency" db:"currency"`
	Balance           float64   `json:"balance" db:"balance"`
	NAV               float64   `json:"nav" db:"nav"` // net asset value
	UnrealizedPL      float64   `json:"unrealized_pl" db:"unrealized_pl"`
	PL                float64   `json:"pl" db:"pl"`
	ResettablePL      float64   `json:"resettable_pl" db:"resettable_pl"`
	MarginUsed        float64   `json:"margin_used" db:"margin_used"`
	MarginAvailable   float64   `json:"margin_available" db:"margin_available"`
	MarginCallPercent float64   `json:"margin_call_percent" db:"margin_call_percent"`
	PositionValue     float64   `json:"position_value" db:"position_value"`
	OpenTradeCount    int       `json:"open_trade_count" db:"open_trade_count"`
	OpenOrderCount    int       `json:"open_order_count" db:"open_order_count"`
	LastTransactionID string    `json:"last_transaction_id" db:"last_transaction_id"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
