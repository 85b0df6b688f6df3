// Package logging wraps go.uber.org/zap with the daemon's leveled-logging
// conventions: info for lifecycle events (daemon start, client
// connect/disconnect), debug for per-document events and queries, warn/error
// for recoverable and unrecoverable faults. It replaces the daemon's
// original flat *log.Logger/ServerLog.Printf call sites one-for-one.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console-encoded logger writing to w, leveled at info by
// default (debug when verbose is set).
func New(w *os.File, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(w),
		level,
	)

	return zap.New(core)
}

// NewNop returns a logger that discards everything, used by tests and
// library callers that don't want daemon log noise.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
