// Package logging provides a category-based logging facade for rentNERD,
// backed by zap. Until Initialize is called every call is a silent no-op, so
// library code and tests can log unconditionally.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a subsystem for log filtering.
type Category string

const (
	CategoryBoot         Category = "boot"         // startup, config, wiring
	CategorySession      Category = "session"      // session state transitions
	CategoryOrchestrator Category = "orchestrator" // turn handling, retry decisions
	CategoryPerception   Category = "perception"   // LLM calls, structured decoding
	CategoryStore        Category = "store"        // SQLite operations
	CategoryAPI          Category = "api"          // provider transport
)

// Config controls the zap core built by Initialize.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console, json
	File   string // optional log file path; empty means stderr
}

var (
	mu   sync.RWMutex
	base *zap.SugaredLogger
)

// Initialize builds the shared zap logger. Safe to call more than once; the
// last configuration wins.
func Initialize(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Format == "console" || cfg.Format == "" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		zcfg.OutputPaths = []string{cfg.File}
	}

	logger, err := zcfg.Build(zap.WithCaller(false))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	base = logger.Sugar()
	mu.Unlock()
	return nil
}

// Sync flushes buffered entries. Call on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if base != nil {
		_ = base.Sync()
	}
}

// Logger is a category-scoped handle.
type Logger struct {
	category Category
}

// Get returns the logger for a category.
func Get(category Category) *Logger {
	return &Logger{category: category}
}

func (l *Logger) log(emit func(*zap.SugaredLogger, string, ...interface{}), format string, args ...interface{}) {
	mu.RLock()
	s := base
	mu.RUnlock()
	if s == nil {
		return
	}
	emit(s.With("cat", string(l.category)), format, args...)
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log((*zap.SugaredLogger).Debugf, format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log((*zap.SugaredLogger).Infof, format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log((*zap.SugaredLogger).Warnf, format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log((*zap.SugaredLogger).Errorf, format, args...)
}

// Convenience wrappers matching the common call sites.

func Boot(format string, args ...interface{})       { Get(CategoryBoot).Info(format, args...) }
func Session(format string, args ...interface{})    { Get(CategorySession).Info(format, args...) }
func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func Perception(format string, args ...interface{}) { Get(CategoryPerception).Info(format, args...) }
func PerceptionDebug(format string, args ...interface{}) {
	Get(CategoryPerception).Debug(format, args...)
}
func Orchestrator(format string, args ...interface{}) {
	Get(CategoryOrchestrator).Info(format, args...)
}
func OrchestratorDebug(format string, args ...interface{}) {
	Get(CategoryOrchestrator).Debug(format, args...)
}
func API(format string, args ...interface{}) { Get(CategoryAPI).Info(format, args...) }
