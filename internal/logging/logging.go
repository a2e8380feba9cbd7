// Package logging собирает slog-логгер по настройкам из config.yaml.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/YaroslavMestkovsky/Extractor/internal/config"
)

// Setup возвращает логгер и функцию закрытия лог-файла (no-op для stderr).
func Setup(cfg config.LoggingConfig) (*slog.Logger, func() error, error) {
	var out io.Writer = os.Stderr
	closer := func() error { return nil }

	if cfg.LogInFile {
		if cfg.File == "" {
			return nil, nil, fmt.Errorf("logging.log_in_file включен, но logging.file не задан")
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("не удалось открыть лог-файл %s: %w", cfg.File, err)
		}
		out = f
		closer = f.Close
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(cfg.Level)})
	return slog.New(handler), closer, nil
}

// ParseLevel понимает и питоновские имена уровней из старых конфигов
// (WARNING, CRITICAL), и обычные slog-овские.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR", "CRITICAL":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
