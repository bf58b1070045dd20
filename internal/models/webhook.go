package models

import "time"

// Типы webhook-событий журнала сделок
const (
	EventOrderFill   = "ORDER_FILL"
	EventOrderCancel = "ORDER_CANCEL"
	EventTradeClose  = "TRADE_CLOSE"
)

// WebhookEvent представляет событие от брокера о жизненном цикле сделки.
//
// События приходят от ingestion-процесса, который слушает транзакционный
// поток брокера. Сервис сопоставляет событие с записью журнала по
// broker_order_id / broker_trade_id и обновляет ее.
type WebhookEvent struct {
	Type       string  `json:"type"`
	AccountID  string  `json:"account_id,omitempty"`
	OrderID    string  `json:"order_id,omitempty"`
	TradeID    string  `json:"trade_id,omitempty"`
	Instrument string  `json:"instrument,omitempty"`
	Units      float64 `json:"units,omitempty"`
	Price      float64 `json:"price,omitempty"`
	RealizedPL float64 `json:"realized_pl,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Time       string  `json:"time,omitempty"` // RFC3339; пустое = время обработки
}

// EventTime возвращает время события или текущее время, если событие
// пришло без таймстампа
func (e *WebhookEvent) EventTime() time.Time {
	if e.Time != "" {
		if t, err := time.Parse(time.RFC3339Nano, e.Time); err == nil {
			return t
		}
	}
	return time.Now()
}
