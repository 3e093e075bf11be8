// Package logx holds the process-wide go.uber.org/zap logger: the logger built by
// config.Config.CreateLogger is installed here with Set, and a production logger
// created at init serves code paths that run before a configured logger is
// available (e.g. flag parsing in cmd/layoutctl).
package logx

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu      sync.RWMutex
	current *zap.Logger
)

func init() {
	current, _ = zap.NewProduction()
}

// Set installs logger as the process-wide default.
func Set(logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = logger
}

// Get returns the process-wide default logger.
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Named returns a child logger tagged with the given component name, the way every
// component in this repo identifies itself in its log lines.
func Named(component string) *zap.Logger {
	return Get().Named(component)
}

// Sync flushes the default logger; callers defer this in main().
func Sync() {
	_ = Get().Sync()
}
