package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fxstats/internal/api/handlers"
	"fxstats/internal/api/middleware"
	"fxstats/internal/service"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	StatsService      service.StatsServiceInterface
	PositionService   service.PositionServiceInterface
	SyncService       service.SyncServiceInterface
	CredentialService service.CredentialServiceInterface

	// Basic auth дашборда; пустой PasswordHash отключает аутентификацию
	AuthUsername     string
	AuthPasswordHash string

	Logger *zap.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Назначение:
// Центральное место для определения всех API endpoints.
// Регистрирует handlers для каждого маршрута.
// Применяет middleware к группам маршрутов.
// Организует версионирование API (v1).
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /analytics/
//	│   ├── GET /stats - агрегированная статистика счета
//	│   ├── GET /equity-curve - кривая капитала
//	│   └── GET /history - история закрытых сделок
//	├── /positions/
//	│   ├── GET /open - открытые позиции с плавающим P/L
//	│   └── GET /open/{intent_id} - детальный вид позиции
//	├── /orders/
//	│   ├── GET /pending - неисполненные лимитные ордера
//	│   └── GET /pending/{intent_id} - детальный вид ордера
//	├── /config/
//	│   ├── GET / - список конфигураций брокера
//	│   ├── POST / - создать конфигурацию
//	│   ├── GET /active - активная конфигурация
//	│   ├── GET /{id} - конфигурация по ID
//	│   ├── PUT /{id} - обновить конфигурацию
//	│   ├── DELETE /{id} - удалить конфигурацию
//	│   └── POST /{id}/activate - сделать активной
//	└── /webhook/
//	    ├── POST /broker - событие журнала сделок
//	    └── POST /sync/account - принудительная синхронизация сводки
//
// /health - проверка живости
// /metrics - prometheus метрики
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. BasicAuth (только для /api/v1)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	logger := zap.NewNop()
	if deps != nil && deps.Logger != nil {
		logger = deps.Logger
	}

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	// API v1 routes, за basic auth (если сконфигурирован)
	api := router.PathPrefix("/api/v1").Subrouter()
	if deps != nil {
		api.Use(middleware.BasicAuth(deps.AuthUsername, deps.AuthPasswordHash))
	}

	// Analytics routes
	if deps != nil && deps.StatsService != nil {
		statsHandler := handlers.NewStatsHandler(deps.StatsService)
		api.HandleFunc("/analytics/stats", statsHandler.GetStats).Methods("GET")
		api.HandleFunc("/analytics/equity-curve", statsHandler.GetEquityCurve).Methods("GET")
		api.HandleFunc("/analytics/history", statsHandler.GetHistory).Methods("GET")
	}

	// Position and order routes
	if deps != nil && deps.PositionService != nil {
		positionHandler := handlers.NewPositionHandler(deps.PositionService)
		api.HandleFunc("/positions/open", positionHandler.GetOpenPositions).Methods("GET")
		api.HandleFunc("/positions/open/{intent_id}", positionHandler.GetOpenPosition).Methods("GET")
		api.HandleFunc("/orders/pending", positionHandler.GetPendingOrders).Methods("GET")
		api.HandleFunc("/orders/pending/{intent_id}", positionHandler.GetPendingOrder).Methods("GET")
	}

	// Broker config routes
	if deps != nil && deps.CredentialService != nil {
		configHandler := handlers.NewConfigHandler(deps.CredentialService)
		api.HandleFunc("/config", configHandler.List).Methods("GET")
		api.HandleFunc("/config", configHandler.Create).Methods("POST")
		api.HandleFunc("/config/active", configHandler.GetActive).Methods("GET")
		api.HandleFunc("/config/{id:[0-9]+}", configHandler.Get).Methods("GET")
		api.HandleFunc("/config/{id:[0-9]+}", configHandler.Update).Methods("PUT")
		api.HandleFunc("/config/{id:[0-9]+}", configHandler.Delete).Methods("DELETE")
		api.HandleFunc("/config/{id:[0-9]+}/activate", configHandler.Activate).Methods("POST")
	}

	// Webhook routes
	if deps != nil && deps.SyncService != nil {
		webhookHandler := handlers.NewWebhookHandler(deps.SyncService)
		api.HandleFunc("/webhook/broker", webhookHandler.HandleBrokerEvent).Methods("POST")
		api.HandleFunc("/webhook/sync/account", webhookHandler.SyncAccount).Methods("POST")
	}

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Prometheus metrics
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}
