// Package logging provides categorized logging for resumeiq, backed by zap.
// Each subsystem logs through its own category so governance-sensitive events
// (promotions, rollbacks, shadow runs) can be filtered without grepping.
package logging

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot        Category = "boot"        // Startup and config loading
	CategoryPipeline    Category = "pipeline"    // Intelligence pipeline orchestration
	CategorySignal      Category = "signal"      // Layer 1 signal extraction
	CategoryInterpret   Category = "interpret"   // Layer 2 interpretation
	CategoryJudgment    Category = "judgment"    // Layer 3 judgment generation
	CategoryRegistry    Category = "registry"    // Prompt/model registry mutations
	CategoryEvaluation  Category = "evaluation"  // Validators and AI judge
	CategoryImprovement Category = "improvement" // Candidate evaluation cycles
	CategoryShadow      Category = "shadow"      // Shadow mode runs
	CategoryProvider    Category = "provider"    // LLM API calls
	CategoryStore       Category = "store"       // sqlite persistence
)

// Logger wraps a zap sugared logger with a fixed category field.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	root      *zap.Logger
	rootMu    sync.RWMutex
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
)

// Initialize installs the root zap logger. Should be called once at startup;
// before that, all loggers are no-ops.
func Initialize(l *zap.Logger) {
	rootMu.Lock()
	root = l
	rootMu.Unlock()

	loggersMu.Lock()
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()

	Get(CategoryBoot).Info("logging initialized")
}

// InitializeDefault builds a production zap config and installs it.
// verbose lowers the level to debug.
func InitializeDefault(verbose bool) error {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	Initialize(l)
	return nil
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if Initialize has not been called.
func Get(category Category) *Logger {
	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	rootMu.RLock()
	r := root
	rootMu.RUnlock()
	if r == nil {
		return &Logger{category: category}
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{
		category: category,
		sugar:    r.Sugar().With("cat", string(category)),
	}
	loggers[category] = l
	return l
}

// Sync flushes buffered log entries. Call at shutdown.
func Sync() {
	rootMu.RLock()
	defer rootMu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// WithField returns a logger with an additional structured field attached.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	if l.sugar == nil {
		return l
	}
	return &Logger{category: l.category, sugar: l.sugar.With(key, value)}
}

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// StopWithThreshold logs a warning if duration exceeds threshold,
// otherwise records the duration at debug level.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
