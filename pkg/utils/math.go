package utils

import (
	"math"
)

// math.go - математические утилиты аналитического ядра
//
// Назначение:
// Вспомогательные функции для расчета статистики и денежных величин.
// Все функции являются чистыми (pure functions) без побочных эффектов.
//
// Ключевой инвариант (вырожденная арифметика):
// деление с нулевым или отсутствующим знаменателем НИКОГДА не паникует
// и не возвращает NaN/Inf - результат всегда определенный ноль.

// Round2 округляет денежное значение до 2 знаков после запятой.
//
// Применяется ТОЛЬКО на выходе (при сборке ответа): промежуточные
// накопительные суммы держатся в полной точности, иначе ошибка
// округления накапливается вдоль всей equity-кривой.
func Round2(value float64) float64 {
	return RoundTo(value, 2)
}

// RoundTo округляет значение до заданного количества знаков
func RoundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}

// SafeDivide делит numerator на denominator.
//
// Возвращает 0 если знаменатель равен нулю - это документированный
// дефолт для всех коэффициентов статистики (profit factor при нулевых
// убытках, win rate при пустом наборе сделок и т.д.).
func SafeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// SafePercent возвращает part/total × 100, либо 0 при нулевом total.
//
// Примеры:
//   - SafePercent(30, 40) = 75.0
//   - SafePercent(5, 0) = 0
func SafePercent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// DrawdownPercent возвращает просадку от пика в процентах.
//
// Формула: (peak - current) / peak × 100.
// При peak <= 0 просадка не определена и возвращается 0.
func DrawdownPercent(peak, current float64) float64 {
	if peak <= 0 {
		return 0
	}
	return (peak - current) / peak * 100
}
