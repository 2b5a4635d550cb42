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

package router

import (
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/speedforceev/fleetstats/server/config"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/log/level"
)

// Router is a small builder around gin.Engine to assemble middlewares and routes
// without leaking application-specific logic into this package.
type Router struct {
	Engine *gin.Engine
	Cfg    *config.Config
	Logger *slog.Logger

	now func() time.Time
}

// NewRouter creates a new Router builder with a fresh gin.Engine.
func NewRouter(cfg *config.Config, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{Engine: gin.New(), Cfg: cfg, Logger: logger, now: time.Now}
}

// WithClock overrides the clock used for response timestamps.
func (r *Router) WithClock(now func() time.Time) *Router {
	if now != nil {
		r.now = now
	}

	return r
}

// Build returns the assembled engine.
func (r *Router) Build() *gin.Engine {
	return r.Engine
}

// ginWriter forwards gin's own debug and error output to slog.
type ginWriter struct {
	logger *slog.Logger
	errors bool
}

func (w *ginWriter) Write(data []byte) (int, error) {
	var err error

	if w.errors {
		err = level.Error(w.logger).Log(definitions.LogKeyMsg, string(data))
	} else {
		err = level.Debug(w.logger).Log(definitions.LogKeyMsg, string(data))
	}

	if err != nil {
		return 0, err
	}

	return len(data), nil
}

// SetupGinLoggers configures logging for the Gin framework. Gin runs in release mode unless
// debug logging is enabled.
func SetupGinLoggers(logger *slog.Logger, logLevel int) {
	gin.DefaultWriter = io.MultiWriter(&ginWriter{logger: logger})
	gin.DefaultErrorWriter = io.MultiWriter(&ginWriter{logger: logger, errors: true})

	if logLevel != definitions.LogLevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	gin.DisableConsoleColor()
}
