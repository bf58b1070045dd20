//go:build integration

// Package integration содержит интеграционные тесты аналитического сервиса.
//
// Тесты проверяют взаимодействие компонентов на настоящем PostgreSQL:
// - полный HTTP цикл через router и сервисный слой
// - репозитории поверх реальной схемы (RETURNING, ON CONFLICT, транзакции)
//
// Запуск: go test -tags=integration ./tests/integration/...
// Подключение к БД настраивается через TEST_DB_* переменные окружения.
package integration

import (
	"database/sql"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"fxstats/internal/api"
	"fxstats/internal/models"
	"fxstats/internal/repository"
	"fxstats/internal/service"
	"fxstats/pkg/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id BIGSERIAL PRIMARY KEY,
	intent_id TEXT NOT NULL UNIQUE,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL DEFAULT 'long',
	units DOUBLE PRECISION NOT NULL DEFAULT 0,
	order_type TEXT NOT NULL DEFAULT '',
	entry_price DOUBLE PRECISION NOT NULL DEFAULT 0,
	current_price DOUBLE PRECISION,
	exit_price DOUBLE PRECISION,
	stop_loss DOUBLE PRECISION,
	take_profit DOUBLE PRECISION,
	realized_pl DOUBLE PRECISION,
	financing DOUBLE PRECISION,
	commission DOUBLE PRECISION,
	status TEXT NOT NULL,
	ai_article TEXT NOT NULL DEFAULT '',
	analysis_json JSONB,
	confidence DOUBLE PRECISION,
	broker_order_id TEXT NOT NULL DEFAULT '',
	broker_trade_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	close_time TIMESTAMPTZ,
	close_reason TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS account_summaries (
	id BIGSERIAL PRIMARY KEY,
	account_id TEXT NOT NULL UNIQUE,
	currency TEXT NOT NULL DEFAULT '',
	balance DOUBLE PRECISION NOT NULL DEFAULT 0,
	nav DOUBLE PRECISION NOT NULL DEFAULT 0,
	unrealized_pl DOUBLE PRECISION NOT NULL DEFAULT 0,
	pl DOUBLE PRECISION NOT NULL DEFAULT 0,
	resettable_pl DOUBLE PRECISION NOT NULL DEFAULT 0,
	margin_used DOUBLE PRECISION NOT NULL DEFAULT 0,
	margin_available DOUBLE PRECISION NOT NULL DEFAULT 0,
	margin_call_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
	position_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	open_trade_count INT NOT NULL DEFAULT 0,
	open_order_count INT NOT NULL DEFAULT 0,
	last_transaction_id TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS broker_configs (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	api_url TEXT NOT NULL DEFAULT '',
	account_id TEXT NOT NULL DEFAULT '',
	api_key TEXT NOT NULL DEFAULT '',
	api_secret TEXT NOT NULL DEFAULT '',
	access_token TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT false,
	testnet BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

// TestServer собирает компоненты для интеграционного теста
type TestServer struct {
	DB     *sql.DB
	Server *httptest.Server

	TradeRepo   *repository.TradeRepository
	AccountRepo *repository.AccountRepository

	Cleanup func()
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// newTestDB подключается к тестовой базе и разворачивает схему
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		envOr("TEST_DB_HOST", "localhost"),
		envOr("TEST_DB_PORT", "5432"),
		envOr("TEST_DB_USER", "postgres"),
		envOr("TEST_DB_PASSWORD", "postgres"),
		envOr("TEST_DB_NAME", "fxstats_test"),
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("test database unavailable: %v", err)
	}

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	if _, err := db.Exec(`TRUNCATE trades, account_summaries, broker_configs RESTART IDENTITY`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	return db
}

// newTestServer собирает полный стек без клиента брокера:
// недоступность котировок - штатный режим, аналитика работает по журналу
func newTestServer(t *testing.T) *TestServer {
	t.Helper()

	db := newTestDB(t)
	logger := utils.NewNopLogger()

	tradeRepo := repository.NewTradeRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	brokerConfigRepo := repository.NewBrokerConfigRepository(db)

	deps := &api.Dependencies{
		StatsService:      service.NewStatsService(tradeRepo, accountRepo, 100000, 100, logger),
		PositionService:   service.NewPositionService(tradeRepo, nil, 50, time.Second, logger),
		SyncService:       service.NewSyncService(tradeRepo, accountRepo, nil, logger),
		CredentialService: service.NewCredentialService(brokerConfigRepo, testEncryptionKey, logger),
		Logger:            logger,
	}

	server := httptest.NewServer(api.SetupRoutes(deps))

	return &TestServer{
		DB:          db,
		Server:      server,
		TradeRepo:   tradeRepo,
		AccountRepo: accountRepo,
		Cleanup: func() {
			server.Close()
			db.Close()
		},
	}
}

func floatPtr(v float64) *float64 { return &v }

func timePtr(v time.Time) *time.Time { return &v }

// seedClosedTrade вставляет закрытую сделку в журнал
func seedClosedTrade(t *testing.T, repo *repository.TradeRepository, intentID string, pl float64, closeTime time.Time) *models.Trade {
	t.Helper()

	trade := &models.Trade{
		IntentID:   intentID,
		Symbol:     "EUR_USD",
		Direction:  models.DirectionLong,
		Units:      1000,
		OrderType:  "LIMIT",
		EntryPrice: 1.1000,
		RealizedPL: floatPtr(pl),
		Status:     models.StatusClosed,
		CreatedAt:  closeTime.Add(-2 * time.Hour),
		UpdatedAt:  closeTime,
		CloseTime:  timePtr(closeTime),
	}
	if err := repo.Create(trade); err != nil {
		t.Fatalf("failed to seed trade %s: %v", intentID, err)
	}
	return trade
}
