// Copyright 2023 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger provides the structured logger used across the
// filesystem core. It wraps log/slog with a TRACE level below Debug and
// a switchable text/JSON handler, matching the severity vocabulary the
// rest of the package's log lines are written against.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Severity levels, in increasing order. slog only has four built-in
// levels, so TRACE is synthesized one notch below Debug.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Level name constants accepted by SetLevel.
const (
	LevelNameTrace = "TRACE"
	LevelNameDebug = "DEBUG"
	LevelNameInfo  = "INFO"
	LevelNameWarn  = "WARNING"
	LevelNameError = "ERROR"
	LevelNameOff   = "OFF"
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: LevelNameTrace,
	LevelDebug: LevelNameDebug,
	LevelInfo:  LevelNameInfo,
	LevelWarn:  LevelNameWarn,
	LevelError: LevelNameError,
}

type loggerFactory struct {
	format string // "text" or "json"
}

func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, level *slog.LevelVar, prefix string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.LevelKey:
				a.Key = "severity"
				lvl, _ := a.Value.Any().(slog.Level)
				if name, ok := levelNames[lvl]; ok {
					a.Value = slog.StringValue(name)
				}
			case slog.MessageKey:
				a.Key = "message"
				a.Value = slog.StringValue(prefix + a.Value.String())
			}
			return a
		},
	}

	if f.format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return &textHandler{inner: slog.NewTextHandler(w, opts)}
}

// textHandler wraps slog's text handler so the severity/message key
// renames above apply to text output the same way they do to JSON.
type textHandler struct {
	inner *slog.TextHandler
}

func (h *textHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *textHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &textHandler{inner: h.inner.WithAttrs(attrs).(*slog.TextHandler)}
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	return &textHandler{inner: h.inner.WithGroup(name).(*slog.TextHandler)}
}

var (
	defaultLoggerFactory = &loggerFactory{format: "text"}
	programLevel         = new(slog.LevelVar)
	defaultLogger        = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, programLevel, ""))
)

// SetFormat switches the logger between "text" and "json" output.
func SetFormat(format string) {
	defaultLoggerFactory.format = format
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, programLevel, ""))
}

// SetOutput redirects log output, used by tests to capture log lines.
func SetOutput(w io.Writer) {
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(w, programLevel, ""))
}

// SetLevel sets the minimum severity that will be emitted. Valid values
// are TRACE, DEBUG, INFO, WARNING, ERROR, OFF.
func SetLevel(level string) {
	setLoggingLevel(level, programLevel)
}

func setLoggingLevel(level string, lv *slog.LevelVar) {
	switch level {
	case LevelNameTrace:
		lv.Set(LevelTrace)
	case LevelNameDebug:
		lv.Set(LevelDebug)
	case LevelNameInfo:
		lv.Set(LevelInfo)
	case LevelNameWarn:
		lv.Set(LevelWarn)
	case LevelNameError:
		lv.Set(LevelError)
	case LevelNameOff:
		lv.Set(slog.Level(1 << 20))
	}
}

// Tracef logs at TRACE severity, the finest-grained level.
func Tracef(format string, args ...any) {
	defaultLogger.Log(context.Background(), LevelTrace, sprintf(format, args...))
}

// Debugf logs at DEBUG severity: structural mutations and promotions.
func Debugf(format string, args ...any) {
	defaultLogger.Log(context.Background(), LevelDebug, sprintf(format, args...))
}

// Infof logs at INFO severity.
func Infof(format string, args ...any) {
	defaultLogger.Log(context.Background(), LevelInfo, sprintf(format, args...))
}

// Warnf logs at WARNING severity: a failed preallocation on open.
func Warnf(format string, args ...any) {
	defaultLogger.Log(context.Background(), LevelWarn, sprintf(format, args...))
}

// Errorf logs at ERROR severity.
func Errorf(format string, args ...any) {
	defaultLogger.Log(context.Background(), LevelError, sprintf(format, args...))
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func init() {
	// Default severity: INFO. Debug/Trace chatter is opt-in.
	programLevel.Set(LevelInfo)
}
