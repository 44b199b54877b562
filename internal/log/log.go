// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package log is a wrapper around logrus used by the compiler pipeline
// and the reference host to report diagnostics for a single compile or
// execution run.
package log

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// Fields aliases logrus.Fields.
type Fields = logrus.Fields

// Entry aliases logrus.Entry.
type Entry = logrus.Entry

// Logger is the interface used throughout this module for diagnostics:
// compiler stage failures, host import dispatch, and contract trap
// reporting all go through it rather than a package-global logger, so a
// caller embedding this module can redirect or silence it.
type Logger interface {
	Debug(...interface{})
	Debugf(string, ...interface{})

	Info(...interface{})
	Infof(string, ...interface{})

	Warn(...interface{})
	Warnf(string, ...interface{})

	Error(...interface{})
	Errorf(string, ...interface{})

	WithField(key string, value interface{}) *Entry
	WithFields(Fields) *Entry

	SetLevel(string) error
	SetOutput(io.Writer)
	SetJSONFormatter()

	WithContext(context.Context) Logger
}

type logger struct {
	entry *logrus.Entry
}

// New creates a new logger writing plain-text output at Info level.
func New() Logger {
	l := logrus.New()
	return logger{entry: logrus.NewEntry(l)}
}

// WithContext returns a copy of l whose entries carry ctx.
func (l logger) WithContext(ctx context.Context) Logger {
	return logger{l.entry.WithContext(ctx)}
}

func (l logger) Debug(args ...interface{}) { l.entry.Debug(args...) }

func (l logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l logger) Info(args ...interface{}) { l.entry.Info(args...) }

func (l logger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l logger) Warn(args ...interface{}) { l.entry.Warn(args...) }

func (l logger) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l logger) Error(args ...interface{}) { l.entry.Error(args...) }

func (l logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// WithField adds a field to the logger, returning a logrus entry so
// call sites can chain further fields before logging.
func (l logger) WithField(key string, value interface{}) *Entry {
	return l.entry.WithField(key, value)
}

// WithFields adds a map of fields to the logger.
func (l logger) WithFields(fields Fields) *Entry {
	return l.entry.WithFields(fields)
}

// SetLevel sets the logger's minimum level by name (e.g. "debug", "warn").
func (l logger) SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.entry.Logger.SetLevel(lvl)
	return nil
}

// SetOutput redirects the logger's writer.
func (l logger) SetOutput(w io.Writer) {
	l.entry.Logger.SetOutput(w)
}

// SetJSONFormatter switches the logger to structured JSON output, for
// embedding in a host that collects contract execution logs as
// machine-readable records rather than console text.
func (l logger) SetJSONFormatter() {
	l.entry.Logger.SetFormatter(&logrus.JSONFormatter{})
}

var origLogger = logrus.New()
var globalLogger = logger{entry: logrus.NewEntry(origLogger)}

// Global returns the package-wide default logger used where a caller
// has not supplied its own (e.g. cmd/clar2wasm).
func Global() Logger {
	return globalLogger
}

// WithContext returns a copy of the global logger carrying ctx.
func WithContext(ctx context.Context) Logger {
	return logger{globalLogger.entry.WithContext(ctx)}
}

// Debug logs at level Debug on the global logger.
func Debug(args ...interface{}) { globalLogger.entry.Debug(args...) }

// Debugf logs at level Debug on the global logger.
func Debugf(format string, args ...interface{}) { globalLogger.entry.Debugf(format, args...) }

// Info logs at level Info on the global logger.
func Info(args ...interface{}) { globalLogger.entry.Info(args...) }

// Infof logs at level Info on the global logger.
func Infof(format string, args ...interface{}) { globalLogger.entry.Infof(format, args...) }

// Warn logs at level Warn on the global logger.
func Warn(args ...interface{}) { globalLogger.entry.Warn(args...) }

// Warnf logs at level Warn on the global logger.
func Warnf(format string, args ...interface{}) { globalLogger.entry.Warnf(format, args...) }

// Error logs at level Error on the global logger.
func Error(args ...interface{}) { globalLogger.entry.Error(args...) }

// Errorf logs at level Error on the global logger.
func Errorf(format string, args ...interface{}) { globalLogger.entry.Errorf(format, args...) }

// WithField adds a field to the global logger.
func WithField(key string, value interface{}) *Entry {
	return globalLogger.entry.WithField(key, value)
}

// WithFields adds a map of fields to the global logger.
func WithFields(fields Fields) *Entry {
	return globalLogger.entry.WithFields(fields)
}

// SetLevel sets the global logger's minimum level.
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	origLogger.SetLevel(lvl)
	return nil
}

// SetOutput redirects the global logger's writer.
func SetOutput(w io.Writer) {
	origLogger.SetOutput(w)
}

// SetJSONFormatter switches the global logger to JSON output.
func SetJSONFormatter() {
	origLogger.SetFormatter(&logrus.JSONFormatter{})
}
