package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fxstats/internal/api"
	"fxstats/internal/broker"
	"fxstats/internal/config"
	"fxstats/internal/repository"
	"fxstats/internal/service"
	"fxstats/pkg/utils"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database", zap.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Инициализация репозиториев
	tradeRepo := repository.NewTradeRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	brokerConfigRepo := repository.NewBrokerConfigRepository(db)

	// Инициализация сервисов
	credentialService := service.NewCredentialService(
		brokerConfigRepo,
		cfg.Security.EncryptionKey,
		logger,
	)

	brokerClient := initBrokerClient(cfg, credentialService, logger)
	if brokerClient != nil {
		defer brokerClient.Close()
	}

	statsService := service.NewStatsService(
		tradeRepo,
		accountRepo,
		cfg.Analytics.InitialBalance,
		cfg.Analytics.HistoryLimit,
		logger,
	)

	positionService := service.NewPositionService(
		tradeRepo,
		brokerClient,
		cfg.Analytics.Leverage,
		cfg.Broker.PriceTimeout,
		logger,
	)

	syncService := service.NewSyncService(tradeRepo, accountRepo, brokerClient, logger)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		StatsService:      statsService,
		PositionService:   positionService,
		SyncService:       syncService,
		CredentialService: credentialService,
		AuthUsername:      cfg.Security.DashboardUser,
		AuthPasswordHash:  cfg.Security.DashboardPasswordHash,
		Logger:            logger,
	}

	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// initBrokerClient создает клиент брокера.
//
// Приоритет у активной конфигурации из БД (учетные данные расшифровываются
// сервисом), затем переменные окружения. Если не настроено ни то, ни другое,
// сервис работает без брокера: аналитика по журналу доступна, live котировки
// и синхронизация сводки - нет.
func initBrokerClient(cfg *config.Config, credentials *service.CredentialService, logger *zap.Logger) broker.Client {
	baseURL := cfg.Broker.APIURL
	token := cfg.Broker.APIKey
	accountID := cfg.Broker.AccountID

	if stored, err := credentials.GetDecrypted(); err == nil {
		baseURL = stored.APIURL
		accountID = stored.AccountID
		if stored.AccessToken != "" {
			token = stored.AccessToken
		} else {
			token = stored.APIKey
		}
		logger.Info("using stored broker config", zap.String("name", stored.Name))
	} else if !errors.Is(err, repository.ErrNoActiveConfig) {
		logger.Warn("failed to load stored broker config, falling back to env", zap.Error(err))
	}

	if token == "" || accountID == "" {
		logger.Warn("broker credentials not configured, live pricing disabled")
		return nil
	}

	httpCfg := broker.DefaultHTTPClientConfig()
	if cfg.Broker.RequestTimeout > 0 {
		httpCfg.TotalTimeout = cfg.Broker.RequestTimeout
	}

	return broker.NewOandaClient(broker.OandaConfig{
		BaseURL:    baseURL,
		Token:      token,
		AccountID:  accountID,
		RateLimit:  cfg.Broker.RateLimit,
		RateBurst:  cfg.Broker.RateBurst,
		MaxRetries: cfg.Broker.MaxRetries,
		HTTPConfig: httpCfg,
	}, logger)
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
