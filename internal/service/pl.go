package service

import (
	"math"

	"fxstats/internal/models"
	"fxstats/pkg/utils"
)

// pl.go - разрешение итогового P/L закрытой сделки
//
// Каноническая цепочка источников:
//  1. realized_pl из журнала - брокер уже посчитал итог, доверяем ему
//  2. расчет по ценам входа/выхода - для записей, где ingestion не
//     успел проставить realized_pl
//  3. ноль - сделка без данных не должна ломать агрегаты
//
// Знак units в расчетах не участвует: направление задается полем
// direction, units может приходить отрицательным для short-позиций.

// Источники P/L (для логирования и тестов)
const (
	PLSourceStored   = "stored"
	PLSourceComputed = "computed"
	PLSourceNone     = "none"
)

// ResolvePL возвращает итоговый P/L закрытой сделки и источник значения.
//
// Нулевой stored P/L - валидное значение (сделка в ноль), а не признак
// отсутствия данных: различие ведется по nil-указателю.
func ResolvePL(t *models.Trade) (float64, string) {
	if t.RealizedPL != nil {
		return *t.RealizedPL, PLSourceStored
	}

	if t.ExitPrice != nil && t.EntryPrice > 0 {
		units := math.Abs(t.Units)
		var pl float64
		if t.Direction == models.DirectionShort {
			pl = (t.EntryPrice - *t.ExitPrice) * units
		} else {
			pl = (*t.ExitPrice - t.EntryPrice) * units
		}
		return pl, PLSourceComputed
	}

	return 0, PLSourceNone
}

// UnrealizedPL возвращает плавающий P/L открытой позиции по текущей цене
func UnrealizedPL(t *models.Trade, currentPrice float64) float64 {
	if currentPrice <= 0 || t.EntryPrice <= 0 {
		return 0
	}

	units := math.Abs(t.Units)
	if t.Direction == models.DirectionShort {
		return (t.EntryPrice - currentPrice) * units
	}
	return (currentPrice - t.EntryPrice) * units
}

// RequiredMargin возвращает требуемую маржу позиции:
// |units * price| / leverage
func RequiredMargin(t *models.Trade, currentPrice, leverage float64) float64 {
	if leverage <= 0 {
		return 0
	}
	price := currentPrice
	if price <= 0 {
		price = t.EntryPrice
	}
	return math.Abs(t.Units*price) / leverage
}

// HistoryEntry преобразует закрытую сделку в запись истории:
// разрешает P/L и приводит отсутствующие денежные поля к нулю
func HistoryEntry(t *models.Trade) *models.TradeHistoryEntry {
	pl, _ := ResolvePL(t)

	return &models.TradeHistoryEntry{
		ID:          t.ID,
		IntentID:    t.IntentID,
		Symbol:      utils.StringOr(t.Symbol, "UNKNOWN"),
		Direction:   t.Direction,
		Units:       t.Units,
		EntryPrice:  t.EntryPrice,
		ExitPrice:   t.ExitPrice,
		RealizedPL:  utils.Round2(pl),
		Financing:   utils.Round2(utils.Float(t.Financing)),
		Commission:  utils.Round2(utils.Float(t.Commission)),
		CreatedAt:   t.CreatedAt,
		CloseTime:   t.CloseTime,
		CloseReason: t.CloseReason,
	}
}
