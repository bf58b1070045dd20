package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Security  SecurityConfig
	Broker    BrokerConfig
	Analytics AnalyticsConfig
	Logging   LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	// EncryptionKey - 32-байтовый ключ AES-256 для шифрования токенов брокера в БД
	EncryptionKey string

	// DashboardUser / DashboardPasswordHash - Basic Auth для API дашборда.
	// Пустой hash отключает аутентификацию (локальная разработка).
	DashboardUser         string
	DashboardPasswordHash string
}

// BrokerConfig - настройки подключения к REST API брокера
//
// Дефолтное подключение из окружения; активная конфигурация из БД
// (если задана) имеет приоритет.
type BrokerConfig struct {
	APIURL    string
	APIKey    string
	AccountID string

	// RequestTimeout - таймаут одного HTTP запроса к брокеру
	RequestTimeout time.Duration

	// PriceTimeout - общий таймаут на запрос котировок при оценке
	// открытых позиций (все символы параллельно)
	PriceTimeout time.Duration

	// RateLimit / RateBurst - ограничение частоты запросов (token bucket)
	RateLimit float64
	RateBurst float64

	// MaxRetries - количество попыток для запросов к брокеру
	MaxRetries int
}

// AnalyticsConfig - параметры аналитического ядра
type AnalyticsConfig struct {
	// InitialBalance - стартовый баланс счета, от которого строятся
	// кривая капитала и просадка
	InitialBalance float64

	// Leverage - плечо для расчета требуемой маржи: |units * price| / leverage
	Leverage float64

	// HistoryLimit - максимум сделок в одной странице истории
	HistoryLimit int

	// PriceCacheTTL - как долго кэшированная котировка считается свежей
	PriceCacheTTL time.Duration
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "fxstats"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Security: SecurityConfig{
			EncryptionKey:         getEnv("ENCRYPTION_KEY", ""),
			DashboardUser:         getEnv("DASHBOARD_USER", "admin"),
			DashboardPasswordHash: getEnv("DASHBOARD_PASSWORD_HASH", ""),
		},
		Broker: BrokerConfig{
			APIURL:         getEnv("BROKER_API_URL", "https://api-fxpractice.oanda.com"),
			APIKey:         getEnv("BROKER_API_KEY", ""),
			AccountID:      getEnv("BROKER_ACCOUNT_ID", ""),
			RequestTimeout: getEnvAsDuration("BROKER_REQUEST_TIMEOUT", 10*time.Second),
			PriceTimeout:   getEnvAsDuration("BROKER_PRICE_TIMEOUT", 5*time.Second),
			RateLimit:      getEnvAsFloat("BROKER_RATE_LIMIT", 30),
			RateBurst:      getEnvAsFloat("BROKER_RATE_BURST", 60),
			MaxRetries:     getEnvAsInt("BROKER_MAX_RETRIES", 4),
		},
		Analytics: AnalyticsConfig{
			InitialBalance: getEnvAsFloat("INITIAL_BALANCE", 100000.0),
			Leverage:       getEnvAsFloat("LEVERAGE", 50),
			HistoryLimit:   getEnvAsInt("HISTORY_LIMIT", 100),
			PriceCacheTTL:  getEnvAsDuration("PRICE_CACHE_TTL", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Валидация критичных параметров безопасности
	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}

	// Валидация числовых диапазонов
	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecurity проверяет параметры безопасности
func (c *Config) validateSecurity() error {
	// ENCRYPTION_KEY обязателен для шифрования токенов брокера
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required for encrypting broker credentials")
	}

	if len(c.Security.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	// Пустой hash допустим (auth выключена), но заданный должен быть bcrypt
	if h := c.Security.DashboardPasswordHash; h != "" && len(h) < 59 {
		return fmt.Errorf("DASHBOARD_PASSWORD_HASH does not look like a bcrypt hash")
	}

	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	if c.Broker.MaxRetries < 0 {
		return fmt.Errorf("BROKER_MAX_RETRIES cannot be negative, got %d", c.Broker.MaxRetries)
	}

	if c.Broker.MaxRetries > 10 {
		return fmt.Errorf("BROKER_MAX_RETRIES should not exceed 10, got %d", c.Broker.MaxRetries)
	}

	if c.Broker.RequestTimeout <= 0 {
		return fmt.Errorf("BROKER_REQUEST_TIMEOUT must be positive, got %v", c.Broker.RequestTimeout)
	}

	if c.Broker.PriceTimeout <= 0 {
		return fmt.Errorf("BROKER_PRICE_TIMEOUT must be positive, got %v", c.Broker.PriceTimeout)
	}

	if c.Analytics.Leverage <= 0 {
		return fmt.Errorf("LEVERAGE must be positive, got %v", c.Analytics.Leverage)
	}

	if c.Analytics.InitialBalance < 0 {
		return fmt.Errorf("INITIAL_BALANCE cannot be negative, got %v", c.Analytics.InitialBalance)
	}

	if c.Analytics.HistoryLimit < 1 {
		return fmt.Errorf("HISTORY_LIMIT must be at least 1, got %d", c.Analytics.HistoryLimit)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
