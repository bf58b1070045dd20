// Package broker предоставляет клиент REST API брокера (OANDA v20).
package broker

import (
	"context"
	"fmt"
	"time"

	"fxstats/internal/models"
)

// Client определяет интерфейс клиента брокера.
//
// Аналитическому ядру от брокера нужно немного: котировки для оценки
// открытых позиций и выборочные детали для сверки после webhook-событий.
type Client interface {
	// GetPrice получает текущую котировку инструмента
	GetPrice(ctx context.Context, symbol string) (*Price, error)

	// GetAccountSummary получает сводку счета
	GetAccountSummary(ctx context.Context) (*models.AccountSummary, error)

	// GetOrder получает ордер по ID на стороне брокера
	GetOrder(ctx context.Context, orderID string) (*OrderDetails, error)

	// GetTrade получает трейд по ID на стороне брокера
	GetTrade(ctx context.Context, tradeID string) (*TradeDetails, error)

	// Close закрывает idle-соединения клиента
	Close()
}

// Price содержит котировку инструмента
type Price struct {
	Symbol string    `json:"symbol"`
	Bid    float64   `json:"bid"`
	Ask    float64   `json:"ask"`
	Time   time.Time `json:"time"`
}

// Mid возвращает середину спреда - каноническую "текущую цену"
// для расчета нереализованного P/L
func (p *Price) Mid() float64 {
	return (p.Bid + p.Ask) / 2
}

// OrderDetails содержит состояние ордера на стороне брокера
type OrderDetails struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Instrument string     `json:"instrument"`
	Units      float64    `json:"units"`
	Price      float64    `json:"price"`
	State      string     `json:"state"` // PENDING, FILLED, CANCELLED
	CreateTime time.Time  `json:"create_time"`
	FilledTime *time.Time `json:"filled_time,omitempty"`
}

// TradeDetails содержит состояние трейда на стороне брокера
type TradeDetails struct {
	ID           string     `json:"id"`
	Instrument   string     `json:"instrument"`
	Units        float64    `json:"units"`
	Price        float64    `json:"price"`
	UnrealizedPL float64    `json:"unrealized_pl"`
	RealizedPL   float64    `json:"realized_pl"`
	State        string     `json:"state"` // OPEN, CLOSED
	OpenTime     time.Time  `json:"open_time"`
	CloseTime    *time.Time `json:"close_time,omitempty"`
}

// Error представляет ошибку REST API брокера
type Error struct {
	StatusCode int
	Message    string
	Original   error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("broker: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return "broker: " + e.Message
}

// Unwrap возвращает оригинальную ошибку для поддержки errors.Is() и errors.As()
func (e *Error) Unwrap() error {
	return e.Original
}

// Retryable сообщает retry-слою, имеет ли смысл повторять запрос.
// 5xx и 429 - временные, остальные 4xx - постоянные.
func (e *Error) Retryable() bool {
	if e.StatusCode == 0 || e.StatusCode == 429 {
		return true
	}
	return e.StatusCode >= 500
}
