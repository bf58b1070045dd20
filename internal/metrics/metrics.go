// Package metrics содержит Prometheus метрики аналитического сервиса.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики аналитического ядра
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о проблемах
// - Анализ производительности в production

// ============ Метрики HTTP API ============

// HTTPRequestDuration - длительность обработки HTTP запросов
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "fxstats",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	},
	[]string{"method", "path", "status"},
)

// ============ Метрики аналитики ============

// StatsComputeDuration - длительность полного пересчета статистики
// (сортировка + свертка + построение equity-кривой)
var StatsComputeDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "fxstats",
		Subsystem: "analytics",
		Name:      "stats_compute_duration_seconds",
		Help:      "Time to compute account statistics from the trade ledger",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
)

// TradesAggregated - количество сделок в последней свертке
var TradesAggregated = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "fxstats",
		Subsystem: "analytics",
		Name:      "trades_aggregated",
		Help:      "Number of closed trades included in the last aggregation",
	},
)

// ============ Метрики брокера ============

// PriceLookups - запросы котировок с результатом
var PriceLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fxstats",
		Subsystem: "broker",
		Name:      "price_lookups_total",
		Help:      "Price lookups by result",
	},
	[]string{"result"}, // live, cached, entry_fallback, error
)

// BrokerRequestDuration - длительность запросов к REST API брокера
var BrokerRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "fxstats",
		Subsystem: "broker",
		Name:      "request_duration_seconds",
		Help:      "Broker API request duration in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"endpoint"},
)

// ============ Метрики webhook ============

// WebhookEvents - обработанные webhook-события журнала сделок
var WebhookEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fxstats",
		Subsystem: "webhook",
		Name:      "events_total",
		Help:      "Processed broker webhook events by type and result",
	},
	[]string{"type", "result"}, // type: order_fill, order_cancel, trade_close; result: ok, skipped, error
)

// ============ Вспомогательные функции ============

// ObserveHTTPRequest записывает длительность обработки HTTP запроса
func ObserveHTTPRequest(method, path string, status int, seconds float64) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(seconds)
}

// ObserveBrokerRequest записывает длительность запроса к REST API брокера
// (полную, включая retry-попытки и ожидание rate limiter'а)
func ObserveBrokerRequest(endpoint string, seconds float64) {
	BrokerRequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

// RecordPriceLookup записывает результат запроса котировки
func RecordPriceLookup(result string) {
	PriceLookups.WithLabelValues(result).Inc()
}

// RecordWebhookEvent записывает обработанное webhook-событие
func RecordWebhookEvent(eventType, result string) {
	WebhookEvents.WithLabelValues(eventType, result).Inc()
}

// ObserveStatsCompute записывает длительность пересчета статистики
func ObserveStatsCompute(seconds float64, tradeCount int) {
	StatsComputeDuration.Observe(seconds)
	TradesAggregated.Set(float64(tradeCount))
}
