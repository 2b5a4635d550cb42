// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package level offers go-kit style leveled logging on top of log/slog:
//
//	level.Info(logger).Log("msg", "Fleet stats updated", "active", 3100)
//
// The "msg" key becomes the record message; every other pair is emitted as a
// structured attribute. Non-string keys and an odd trailing key are dropped.
package level

import (
	"context"
	"log/slog"
	"reflect"
)

// Logger is the minimal keyvals logging interface returned by the level constructors.
type Logger interface {
	Log(keyvals ...any) error
}

type slogLevelLogger struct {
	l   *slog.Logger
	lvl slog.Level
	ctx context.Context
}

// WithContext returns an info level Logger that forwards ctx to the handler.
func WithContext(ctx context.Context, l *slog.Logger) Logger {
	return &slogLevelLogger{l: l, lvl: slog.LevelInfo, ctx: ctx}
}

// Debug returns a Logger that logs at slog.LevelDebug.
func Debug(l *slog.Logger) Logger {
	return &slogLevelLogger{l: l, lvl: slog.LevelDebug}
}

// Info returns a Logger that logs at slog.LevelInfo.
func Info(l *slog.Logger) Logger {
	return &slogLevelLogger{l: l, lvl: slog.LevelInfo}
}

// Warn returns a Logger that logs at slog.LevelWarn.
func Warn(l *slog.Logger) Logger {
	return &slogLevelLogger{l: l, lvl: slog.LevelWarn}
}

// Error returns a Logger that logs at slog.LevelError.
func Error(l *slog.Logger) Logger {
	return &slogLevelLogger{l: l, lvl: slog.LevelError}
}

func (s *slogLevelLogger) Log(keyvals ...any) error {
	if s.l == nil {
		return nil
	}

	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if !s.l.Enabled(ctx, s.lvl) {
		return nil
	}

	msg, attrs := splitKeyvals(keyvals)
	if msg == "" {
		msg = defaultMessage(s.lvl)
	}

	s.l.LogAttrs(ctx, s.lvl, msg, attrs...)

	return nil
}

func splitKeyvals(keyvals []any) (string, []slog.Attr) {
	var msg string

	attrs := make([]slog.Attr, 0, len(keyvals)/2)

	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}

		value := keyvals[i+1]

		if key == "msg" {
			if s, ok := value.(string); ok {
				msg = s

				continue
			}
		}

		switch v := value.(type) {
		case string:
			attrs = append(attrs, slog.String(key, v))
		case error:
			if isTypedNil(v) {
				attrs = append(attrs, slog.String(key, "<nil>"))
			} else {
				attrs = append(attrs, slog.String(key, v.Error()))
			}
		default:
			// slog.Any panics on some typed-nil values.
			if isTypedNil(v) {
				attrs = append(attrs, slog.String(key, "<nil>"))
			} else {
				attrs = append(attrs, slog.Any(key, v))
			}
		}
	}

	return msg, attrs
}

func isTypedNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Map, reflect.Pointer, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

func defaultMessage(lvl slog.Level) string {
	switch {
	case lvl <= slog.LevelDebug:
		return "debug"
	case lvl <= slog.LevelInfo:
		return "info"
	case lvl <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}
