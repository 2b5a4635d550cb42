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

package logging

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/ksuid"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/log/level"
)

// GUIDMiddleware assigns a request GUID without logging. It is installed when the access log is
// disabled so that error logs can still be correlated.
func GUIDMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(definitions.CtxGUIDKey, ksuid.New().String())
		ctx.Next()
	}
}

// LoggerMiddleware creates a middleware for logging HTTP requests and responses, including latency and client details.
// It assigns a unique identifier (GUID) to each request.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx *gin.Context) {
		var logWrapper func(logger *slog.Logger) level.Logger

		guid := ksuid.New().String()
		ctx.Set(definitions.CtxGUIDKey, guid)

		start := time.Now()

		ctx.Next()

		latency := time.Since(start)
		err := ctx.Errors.Last()

		if err != nil || ctx.Writer.Status() >= 500 {
			logWrapper = level.Error
		} else {
			logWrapper = level.Info
		}

		userAgent := ctx.Request.UserAgent()
		if userAgent == "" {
			userAgent = definitions.NotAvailable
		}

		msg := "HTTP request"
		if err != nil {
			msg = err.Error()
		}

		logWrapper(logger).Log(
			definitions.LogKeyGUID, guid,
			definitions.LogKeyClientIP, ctx.ClientIP(),
			definitions.LogKeyMethod, ctx.Request.Method,
			definitions.LogKeyProtocol, ctx.Request.Proto,
			definitions.LogKeyHTTPStatus, ctx.Writer.Status(),
			definitions.LogKeyLatency, FormatLatency(latency),
			definitions.LogKeyUserAgent, userAgent,
			definitions.LogKeyUriPath, ctx.Request.URL.Path,
			definitions.LogKeyMsg, msg,
		)
	}
}

// FormatLatency renders d in milliseconds with three decimals.
func FormatLatency(d time.Duration) string {
	return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
}
