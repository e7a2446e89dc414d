/* YaNFD - Yet another NDN Forwarding Daemon
 *
 * Copyright (C) 2020-2021 Eric Newberry.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	stdlog "github.com/ndn-facesys/facesys/std/log"
)

// Logger is the face system's structured logger. Call sites pass the
// fmt.Stringer receiver they are logging on first, matching the style of
// every transport/channel/factory in this package.
type Logger struct {
	level   stdlog.Level
	handler *slog.Logger
}

// Log is the package-level logger used throughout fw/core and fw/face.
var Log = NewLogger(stdlog.LevelInfo)

// NewLogger constructs a Logger at the given minimum level, backed by
// log/slog's text handler on stderr.
func NewLogger(level stdlog.Level) *Logger {
	return &Logger{
		level:   level,
		handler: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

// SetLevel adjusts the minimum level that will be emitted.
func (l *Logger) SetLevel(level stdlog.Level) {
	l.level = level
}

func (l *Logger) log(level stdlog.Level, slevel slog.Level, who fmt.Stringer, msg string, kv ...any) {
	if level < l.level {
		return
	}
	args := make([]any, 0, len(kv)+2)
	args = append(args, "module", who.String())
	args = append(args, kv...)
	l.handler.Log(context.Background(), slevel, msg, args...)
}

func (l *Logger) Trace(who fmt.Stringer, msg string, kv ...any) {
	l.log(stdlog.LevelTrace, slog.LevelDebug-4, who, msg, kv...)
}

func (l *Logger) Debug(who fmt.Stringer, msg string, kv ...any) {
	l.log(stdlog.LevelDebug, slog.LevelDebug, who, msg, kv...)
}

func (l *Logger) Info(who fmt.Stringer, msg string, kv ...any) {
	l.log(stdlog.LevelInfo, slog.LevelInfo, who, msg, kv...)
}

func (l *Logger) Warn(who fmt.Stringer, msg string, kv ...any) {
	l.log(stdlog.LevelWarn, slog.LevelWarn, who, msg, kv...)
}

func (l *Logger) Error(who fmt.Stringer, msg string, kv ...any) {
	l.log(stdlog.LevelError, slog.LevelError, who, msg, kv...)
}

// Fatal logs at error level and terminates the process, matching the
// teacher's core.Log.Fatal call sites (listener startup failures).
func (l *Logger) Fatal(who fmt.Stringer, msg string, kv ...any) {
	l.log(stdlog.LevelFatal, slog.LevelError, who, msg, kv...)
	os.Exit(1)
}
