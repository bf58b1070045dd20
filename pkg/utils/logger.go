package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger.go - настройка структурированного логирования (zap)
//
// Назначение:
// Единая точка инициализации логгера для всего приложения.
// Логгер передается в компоненты явно через конструкторы,
// глобального состояния нет.
//
// Конфигурация:
// - LOG_LEVEL: debug, info, warn, error (default: info)
// - LOG_FORMAT: json (production) или console (разработка)

// NewLogger создает сконфигурированный zap-логгер.
//
// Параметры:
//   - level: уровень логирования ("debug", "info", "warn", "error")
//   - format: "json" или "console"
//
// Возвращает ошибку только при нераспознанном уровне.
func NewLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info", "":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level: %q", level)
	}

	var cfg zap.Config
	if strings.ToLower(format) == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	return cfg.Build()
}

// NewNopLogger возвращает логгер-заглушку для тестов
func NewNopLogger() *zap.Logger {
	return zap.NewNop()
}
