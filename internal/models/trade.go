package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Статусы сделки.
//
// Статус нормализуется ОДИН раз на границе (при чтении из БД и при приеме
// webhook-событий). Весь остальной код сравнивает строго с константами,
// без case-insensitive сравнений.
const (
	StatusPending   = "pending"   // лимитный ордер размещен, но не исполнен
	StatusOpen      = "open"      // позиция открыта
	StatusClosed    = "closed"    // позиция закрыта
	StatusCancelled = "cancelled" // отложенный ордер отменен до исполнения
	StatusUnknown   = "unknown"   // нераспознанный статус из внешнего источника
)

// Направления сделки
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// NormalizeStatus приводит статус из внешнего источника к фиксированному
// набору {pending, open, closed, cancelled}. Регистр и пробелы игнорируются.
// Нераспознанные значения превращаются в StatusUnknown - такая сделка
// не попадает ни в один агрегат.
func NormalizeStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StatusPending:
		return StatusPending
	case StatusOpen:
		return StatusOpen
	case StatusClosed:
		return StatusClosed
	case StatusCancelled:
		return StatusCancelled
	default:
		return StatusUnknown
	}
}

// NormalizeDirection приводит направление к {long, short}.
// Пустое или нераспознанное значение считается long - это документированный
// дефолт для записей, созданных до появления поля direction.
func NormalizeDirection(raw string) string {
	if strings.ToLower(strings.TrimSpace(raw)) == DirectionShort {
		return DirectionShort
	}
	return DirectionLong
}

// Trade представляет запись журнала сделок (trades таблица).
//
// Запись создается и обновляется НЕ этим сервисом: журнал ведет внешний
// ingestion-процесс (webhook от брокера). Аналитическое ядро читает записи
// как неизменяемые снимки на время одного расчета.
//
// Nullable поля хранятся указателями: для аналитики важно отличать
// "значение отсутствует" от "значение равно нулю" (например, realized_pl).
type Trade struct {
	ID            int64           `json:"id" db:"id"`
	IntentID      string          `json:"intent_id" db:"intent_id"`
	Symbol        string          `json:"symbol" db:"symbol"`
	Direction     string          `json:"direction" db:"direction"` // long, short
	Units         float64         `json:"units" db:"units"`         // знак игнорируется в формулах P/L
	OrderType     string          `json:"order_type" db:"order_type"`
	EntryPrice    float64         `json:"entry_price" db:"entry_price"`
	CurrentPrice  *float64        `json:"current_price,omitempty" db:"current_price"` // последняя известная цена
	ExitPrice     *float64        `json:"exit_price,omitempty" db:"exit_price"`
	StopLoss      *float64        `json:"stop_loss,omitempty" db:"stop_loss"`
	TakeProfit    *float64        `json:"take_profit,omitempty" db:"take_profit"`
	RealizedPL    *float64        `json:"realized_pl,omitempty" db:"realized_pl"`
	Financing     *float64        `json:"financing,omitempty" db:"financing"`
	Commission    *float64        `json:"commission,omitempty" db:"commission"`
	Status        string          `json:"status" db:"status"` // нормализованный
	Article       string          `json:"ai_article,omitempty" db:"ai_article"`     // markdown-отчет, большое поле
	AnalysisJSON  json.RawMessage `json:"analysis_json,omitempty" db:"analysis_json"` // структурированный анализ
	Confidence    *float64        `json:"confidence,omitempty" db:"confidence"`
	BrokerOrderID string          `json:"broker_order_id,omitempty" db:"broker_order_id"`
	BrokerTradeID string          `json:"broker_trade_id,omitempty" db:"broker_trade_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	CloseTime     *time.Time      `json:"close_time,omitempty" db:"close_time"`
	CloseReason   string          `json:"close_reason,omitempty" db:"close_reason"`
}

// ChronoKey возвращает канонический хронологический ключ сделки.
//
// Порядок свертки фиксирован для всего ядра: время закрытия, при его
// отсутствии - время последнего обновления, затем время создания.
// Агрегатор и построитель equity-кривой используют один и тот же ключ,
// иначе серии побед/просадки могут разойтись на одних и тех же данных.
func (t *Trade) ChronoKey() time.Time {
	if t.CloseTime != nil {
		return *t.CloseTime
	}
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	return t.CreatedAt
}
