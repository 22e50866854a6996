package configs

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var Logger *slog.Logger

// InitLogger настраивает JSON-логгер по умолчанию
func InitLogger(level, env string) *slog.Logger {
	Logger = NewLogger(os.Stdout, level, env)
	slog.SetDefault(Logger)

	slog.Info("Logger initialized successfully", "level", level, "env", env)
	return Logger
}

// NewLogger создает логгер без установки его глобальным
func NewLogger(w io.Writer, level, env string) *slog.Logger {
	var handler slog.Handler

	if env == "production" {
		// Продакшен: JSON формат
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: ParseLevel(level),
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       ParseLevel(level),
			ReplaceAttr: replaceTimeAttr,
			AddSource:   true,
		})
	}

	return slog.New(handler)
}

// ParseLevel переводит LOG_LEVEL в slog.Level, по умолчанию info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func replaceTimeAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.String("time", a.Value.Time().Local().Format("2006-01-02 15:04:05"))
	}
	return a
}
