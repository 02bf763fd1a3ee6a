package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	APP        = "APP"
	ASSISTANT  = "ASSISTANT"
	CONFIG     = "CONFIG"
	DASHBOARD  = "DASHBOARD"
	HANDLER    = "HANDLER"
	MIDDLEWARE = "MIDDLEWARE"
	REDIS      = "REDIS"
	REGISTRY   = "REGISTRY"
	SERVICE    = "SERVICE"
	SNAPSHOT   = "SNAPSHOT"
)

var (
	mu   sync.RWMutex
	base = newLogger(os.Stderr, getLogLevel())
)

func getLogLevel() zerolog.Level {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// SetOutput redirects all namespaced logging to w, keeping the configured level.
// It returns a function restoring the previous logger and is mostly used by tests.
func SetOutput(w io.Writer) func() {
	mu.Lock()
	previous := base
	base = newLogger(w, previous.GetLevel())
	mu.Unlock()

	return func() {
		mu.Lock()
		base = previous
		mu.Unlock()
	}
}

// SetLevel changes the minimum level of the namespaced logger.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	base = base.Level(level)
}

// Logger returns the underlying zerolog logger for call sites that want structured fields.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

func event(level zerolog.Level, namespace string) *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return base.WithLevel(level).Str("namespace", namespace)
}

func Debug(namespace, format string, v ...interface{}) {
	event(zerolog.DebugLevel, namespace).Msgf(format, v...)
}

func Info(namespace, format string, v ...interface{}) {
	event(zerolog.InfoLevel, namespace).Msgf(format, v...)
}

func Warn(namespace, format string, v ...interface{}) {
	event(zerolog.WarnLevel, namespace).Msgf(format, v...)
}

func Error(namespace, format string, v ...interface{}) {
	event(zerolog.ErrorLevel, namespace).Msgf(format, v...)
}
