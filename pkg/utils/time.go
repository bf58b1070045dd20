package utils

import "time"

// time.go - временные утилиты аналитического ядра

// HoursBetween возвращает длительность между start и end в часах.
//
// Используется для расчета времени удержания позиции:
// (close_time - created_at) в часах.
// Если end раньше start (рассинхронизация часов источников),
// возвращается 0, а не отрицательное время удержания.
func HoursBetween(start, end time.Time) float64 {
	if end.Before(start) {
		return 0
	}
	return end.Sub(start).Hours()
}

// HoldingHours возвращает время удержания позиции в часах.
//
// Возвращает (hours, true) только когда известны оба времени;
// сделки без какого-либо из таймстампов исключаются из среднего
// целиком - и из числителя, и из знаменателя.
func HoldingHours(createdAt time.Time, closeTime *time.Time) (float64, bool) {
	if closeTime == nil || createdAt.IsZero() {
		return 0, false
	}
	return HoursBetween(createdAt, *closeTime), true
}
