// Package logging provides structured logging for the SDK.
//
// It is a thin wrapper around log/slog so that every package logs with the
// same key-value convention and consumers can raise or silence SDK output
// with a single call.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

var level = new(slog.LevelVar)

func init() {
	level.Set(slog.LevelWarn)
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// SetLevel changes the minimum level of SDK log output.
// The default is slog.LevelWarn so the SDK stays quiet in libraries.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetOutput redirects SDK log output to w.
func SetOutput(w io.Writer) {
	logger.Store(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// SetLogger replaces the underlying slog.Logger entirely. Useful when the
// host application already has a configured handler.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// Debug logs at debug level with alternating key-value pairs.
func Debug(msg string, args ...any) {
	logger.Load().Debug(msg, args...)
}

// Info logs at info level with alternating key-value pairs.
func Info(msg string, args ...any) {
	logger.Load().Info(msg, args...)
}

// Warn logs at warn level with alternating key-value pairs.
func Warn(msg string, args ...any) {
	logger.Load().Warn(msg, args...)
}

// Error logs at error level with alternating key-value pairs.
func Error(msg string, args ...any) {
	logger.Load().Error(msg, args...)
}
