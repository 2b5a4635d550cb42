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

// Package log owns the process wide slog logger.
package log

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/log/color"
)

// levelNone is above every level slog emits.
const levelNone = slog.Level(1 << 10)

var (
	mu sync.Mutex

	levelVar = new(slog.LevelVar)

	// Logger is used for all messages that are printed to stdout.
	Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: levelVar}))
)

// Options controls SetupLogging.
type Options struct {
	Level      int
	JSON       bool
	Color      bool
	ColorTheme string
	Instance   string

	// Output defaults to os.Stdout.
	Output io.Writer
}

// SetupLogging replaces the global Logger and returns it.
//
// Colors are only used for text output on a terminal.
func SetupLogging(opts Options) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	SetLevel(opts.Level)

	handlerOpts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler

	switch {
	case opts.JSON:
		handler = slog.NewJSONHandler(out, handlerOpts)
	case opts.Color && isTerminal(out):
		handler = color.NewLineWrapper(out, handlerOpts, color.ThemeColorMap(opts.ColorTheme))
	default:
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	logger := slog.New(handler)
	if opts.Instance != "" {
		logger = logger.With(definitions.LogKeyInstance, opts.Instance)
	}

	Logger = logger

	slog.SetDefault(logger)

	return logger
}

// SetLevel changes the level of every logger created by SetupLogging.
func SetLevel(configLevel int) {
	levelVar.Set(ToSlogLevel(configLevel))
}

// CurrentLevel returns the active slog level.
func CurrentLevel() slog.Level {
	return levelVar.Level()
}

// ToSlogLevel maps a definitions.LogLevel* value to a slog level.
func ToSlogLevel(configLevel int) slog.Level {
	switch configLevel {
	case definitions.LogLevelNone:
		return levelNone
	case definitions.LogLevelError:
		return slog.LevelError
	case definitions.LogLevelWarn:
		return slog.LevelWarn
	case definitions.LogLevelDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
