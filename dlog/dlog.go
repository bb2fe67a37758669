// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dlog is the diagnostics logger for the dendrite library.  Property
// reads that cannot be resolved (missing geometry, missing capacitance, ...)
// never fail hard; they report here instead.  The default logger writes
// warnings and above to stderr in zap's development format; embedders can
// swap in their own with SetLogger.
package dlog

import (
	"go.uber.org/zap"
)

var lg = newDefault()

func newDefault() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

// SetLogger replaces the package logger.  Pass zap.NewNop() to silence all
// diagnostics (tests do this).
func SetLogger(l *zap.Logger) {
	lg = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Logger returns the current package logger.
func Logger() *zap.SugaredLogger { return lg }

// Debugw logs a debug message with key-value context.
func Debugw(msg string, keysAndValues ...any) { lg.Debugw(msg, keysAndValues...) }

// Infow logs an info message with key-value context.
func Infow(msg string, keysAndValues ...any) { lg.Infow(msg, keysAndValues...) }

// Warnw logs a warning with key-value context.
func Warnw(msg string, keysAndValues ...any) { lg.Warnw(msg, keysAndValues...) }

// Errorw logs an error with key-value context.
func Errorw(msg string, keysAndValues ...any) { lg.Errorw(msg, keysAndValues...) }

// Sync flushes any buffered log entries.
func Sync() { _ = lg.Sync() }
