package models

import "time"

// AccountStats представляет агрегированную статистику счета.
//
// Первая группа полей берется как есть из снимка AccountSummary,
// вторая - пересчитывается из журнала закрытых сделок при каждом запросе.
// Все дробные значения округлены до 2 знаков на выходе.
type AccountStats struct {
	// Из снимка счета
	TotalBalance       float64 `json:"total_balance"`
	TotalPositionValue float64 `json:"total_position_value"`
	UnrealizedPL       float64 `json:"unrealized_pl"`
	MarginUsed         float64 `json:"margin_used"`
	MarginAvailable    float64 `json:"margin_available"`
	OpenTradeCount     int     `json:"open_trade_count"`
	OpenOrderCount     int     `json:"open_order_count"`

	// Из журнала закрытых сделок
	WinRate           float64 `json:"win_rate"`          // % выигрышных сделок
	ProfitLossRatio   float64 `json:"profit_loss_ratio"` // совпадает с profit_factor
	LongWinRate       float64 `json:"long_win_rate"`
	ShortWinRate      float64 `json:"short_win_rate"`
	MaxDrawdown       float64 `json:"max_drawdown"` // % от пика баланса
	ProfitFactor      float64 `json:"profit_factor"`
	ConsecutiveLosses int     `json:"consecutive_losses"` // максимум серии, не текущая
	ConsecutiveWins   int     `json:"consecutive_wins"`
	AvgHoldingTime    float64 `json:"avg_holding_time"` // часы
}

// EquityPoint представляет одну точку кривой доходности
type EquityPoint struct {
	Date             time.Time `json:"date"`
	CumulativeProfit float64   `json:"cumulative_profit"`
	Balance          float64   `json:"balance"`
}

// EquityCurve представляет ответ с кривой доходности
type EquityCurve struct {
	Data []EquityPoint `json:"data"`
}

// PositionView представляет открытую позицию для списка
// (облегченный вид, без больших текстовых полей).
// UnrealizedPL и Margin - расчетные поля, не хранятся в БД.
type PositionView struct {
	ID           int64     `json:"id"`
	IntentID     string    `json:"intent_id"`
	Symbol       string    `json:"symbol"`
	Direction    string    `json:"direction"`
	Units        float64   `json:"units"`
	EntryPrice   float64   `json:"entry_price"`
	StopLoss     *float64  `json:"stop_loss,omitempty"`
	TakeProfit   *float64  `json:"take_profit,omitempty"`
	CurrentPrice float64   `json:"current_price"`
	UnrealizedPL float64   `json:"unrealized_pl"`
	Margin       float64   `json:"margin"`
	CreatedAt    time.Time `json:"created_at"`
}

// PendingOrderView представляет неисполненный лимитный ордер для списка
type PendingOrderView struct {
	ID           int64     `json:"id"`
	IntentID     string    `json:"intent_id"`
	Symbol       string    `json:"symbol"`
	Units        float64   `json:"units"`
	EntryPrice   float64   `json:"entry_price"`
	StopLoss     *float64  `json:"stop_loss,omitempty"`
	TakeProfit   *float64  `json:"take_profit,omitempty"`
	CurrentPrice *float64  `json:"current_price,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// TradeDetail представляет детальный вид сделки: полная запись журнала
// плюс расчетные поля по актуальной цене.
type TradeDetail struct {
	Trade
	ResolvedPrice float64 `json:"resolved_price"`         // live -> кэш -> цена входа
	UnrealizedPL  float64 `json:"unrealized_pl_computed"` // для открытых
	Margin        float64 `json:"margin_computed"`        // для открытых
}

// TradeHistoryEntry представляет закрытую сделку в истории.
// Отсутствующие денежные поля приводятся к нулю на выходе.
type TradeHistoryEntry struct {
	ID          int64      `json:"id"`
	IntentID    string     `json:"intent_id"`
	Symbol      string     `json:"symbol"`
	Direction   string     `json:"direction"`
	Units       float64    `json:"units"`
	EntryPrice  float64    `json:"entry_price"`
	ExitPrice   *float64   `json:"exit_price,omitempty"`
	RealizedPL  float64    `json:"realized_pl"`
	Financing   float64    `json:"financing"`
	Commission  float64    `json:"commission"`
	CreatedAt   time.Time  `json:"created_at"`
	CloseTime   *time.Time `json:"close_time,omitempty"`
	CloseReason string     `json:"close_reason,omitempty"`
}
