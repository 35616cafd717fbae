package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	logger   *slog.Logger
	loggerMu sync.RWMutex
	logFile  *os.File
	inited   bool
	initOnce sync.Once
)

// LogLevel selects logging verbosity.
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Config holds logger configuration.
type Config struct {
	Level      LogLevel
	OutputPath string // empty for stderr, or a file path
	Format     string // "json" or "text"
}

// Init initializes the global logger. Calling Init twice without an
// intervening Close is an error, so level and destination stay under a
// single owner.
func Init(config Config) error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if inited {
		return fmt.Errorf("logger already initialized; call Close() first to reinitialize")
	}

	var writer io.Writer = os.Stderr
	if config.OutputPath != "" {
		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		writer = file
		logFile = file
	}

	opts := &slog.HandlerOptions{Level: level(config.Level)}
	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	logger = slog.New(handler)
	inited = true
	return nil
}

// InitDefault initializes the logger with INFO-level text output to
// stderr. Safe to call multiple times; only the first has effect.
func InitDefault() {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if inited {
		return
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	inited = true
}

// Close releases the logger and any open log file. After Close, Init
// may be called again. Safe to call multiple times.
func Close() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if !inited {
		return nil
	}

	var err error
	if logFile != nil {
		err = logFile.Close()
		logFile = nil
	}
	logger = nil
	inited = false
	initOnce = sync.Once{}
	return err
}

// GetLogger returns the current logger, lazily initializing defaults if
// Init was never called.
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	if inited {
		l := logger
		loggerMu.RUnlock()
		return l
	}
	loggerMu.RUnlock()

	initOnce.Do(InitDefault)

	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	return l
}

func level(l LogLevel) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs a debug message through the global logger.
func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

// Info logs an info message through the global logger.
func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

// Warn logs a warning message through the global logger.
func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

// Error logs an error message through the global logger.
func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}
