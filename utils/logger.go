package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger - общий логгер приложения
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// InitLogger настраивает логгер: консольный вывод в development, JSON в остальных окружениях
func InitLogger(level, env string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if strings.EqualFold(env, "development") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	Logger = NewLogger(out, level)
	return Logger
}

// NewLogger создает логгер с заданным writer и уровнем
func NewLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// LogInfo логирует информационное сообщение
func LogInfo(format string, v ...interface{}) {
	Logger.Info().CallerSkipFrame(1).Caller().Msg(fmt.Sprintf(format, v...))
}

// LogError логирует сообщение об ошибке
func LogError(format string, v ...interface{}) {
	Logger.Error().CallerSkipFrame(1).Caller().Msg(fmt.Sprintf(format, v...))
}

// LogDebug логирует отладочное сообщение
func LogDebug(format string, v ...interface{}) {
	Logger.Debug().CallerSkipFrame(1).Caller().Msg(fmt.Sprintf(format, v...))
}

// LogOperation логирует операцию с метриками
func LogOperation(operation string, startTime time.Time, err error) {
	duration := time.Since(startTime)
	GetMetrics().RecordOperation(operation, err)
	if err != nil {
		Logger.Error().Err(err).Str("operation", operation).Dur("duration", duration).Msg("operation failed")
		return
	}
	Logger.Info().Str("operation", operation).Dur("duration", duration).Msg("operation completed")
}
