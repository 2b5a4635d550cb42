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

// Package logfx provides the process logger to fx and keeps its level in sync with
// the configuration.
package logfx

import (
	"context"
	stdlog "log"
	"log/slog"
	"strings"

	"github.com/speedforceev/fleetstats/server/app/configfx"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/log"
	"github.com/speedforceev/fleetstats/server/log/level"
	"go.uber.org/fx"
)

// NewLogger builds the process logger from the current configuration.
func NewLogger(cfgProvider configfx.Provider) *slog.Logger {
	cfg := cfgProvider.Current().Config

	return log.SetupLogging(log.Options{
		Level:      cfg.LogLevelValue(),
		JSON:       cfg.LogFormatJSON,
		Color:      cfg.LogColor,
		ColorTheme: cfg.LogColorTheme,
		Instance:   cfg.InstanceName,
	})
}

// slogStdWriter forwards lines written by the standard library logger.
type slogStdWriter struct {
	logger *slog.Logger
}

func (w *slogStdWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\r\n")
	if msg != "" {
		level.Info(w.logger).Log(definitions.LogKeyMsg, msg, "source", "stdlib")
	}

	return len(p), nil
}

// BridgeStdLog wires the standard library log package to logger once the app starts.
func BridgeStdLog(lc fx.Lifecycle, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if logger == nil {
				return nil
			}

			stdlog.SetFlags(0)
			stdlog.SetOutput(&slogStdWriter{logger: logger})

			return nil
		},
	})
}
