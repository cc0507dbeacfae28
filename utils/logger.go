package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	InfoLog  = slog.Default()
	ErrorLog = slog.Default()
)

// ParsearNivel traduce el LOG_LEVEL de la configuración a un nivel de slog
func ParsearNivel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "debug", "trace":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InicializarLogger configura los loggers globales
func InicializarLogger(logLevel string, moduleName string) {
	InicializarLoggerEn(os.Stdout, logLevel, moduleName)
}

// InicializarLoggerEn configura los loggers globales escribiendo en w
func InicializarLoggerEn(w io.Writer, logLevel string, moduleName string) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParsearNivel(logLevel),
	})

	logger := slog.New(handler).With("modulo", moduleName)

	InfoLog = logger
	ErrorLog = logger
}
