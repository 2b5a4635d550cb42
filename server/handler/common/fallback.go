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

package common

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/log/level"
)

// NotFound answers unmatched routes with 404 and the requested path.
func NotFound(now func() time.Time) gin.HandlerFunc {
	clock := Clock(now)

	return func(ctx *gin.Context) {
		_ = WriteJSON(ctx, http.StatusNotFound, ErrorResponse{
			Error:     definitions.MsgRouteNotFound,
			Path:      ctx.Request.URL.Path,
			Timestamp: Timestamp(clock()),
		})
	}
}

// Recovery turns a panic in any handler into a JSON 500. The panic value is only
// exposed in development-like environments.
func Recovery(env definitions.Environment, logger *slog.Logger, now func() time.Time) gin.HandlerFunc {
	clock := Clock(now)

	return func(ctx *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			err, ok := recovered.(error)
			if !ok {
				err = fmt.Errorf("%v", recovered)
			}

			level.Error(logger).Log(
				definitions.LogKeyGUID, ctx.GetString(definitions.CtxGUIDKey),
				definitions.LogKeyMsg, "Unhandled error in request",
				definitions.LogKeyUriPath, ctx.Request.URL.Path,
				definitions.LogKeyError, err,
			)

			if ctx.Writer.Written() {
				ctx.Abort()

				return
			}

			AbortWithError(ctx, env, clock, err)
		}()

		ctx.Next()
	}
}

// ErrorResponder renders errors attached with ctx.Error when no handler wrote a response.
func ErrorResponder(env definitions.Environment, now func() time.Time) gin.HandlerFunc {
	clock := Clock(now)

	return func(ctx *gin.Context) {
		ctx.Next()

		if len(ctx.Errors) == 0 || ctx.Writer.Written() {
			return
		}

		_ = WriteJSON(ctx, http.StatusInternalServerError, ErrorResponse{
			Error:     ErrorMessage(env, ctx.Errors.Last().Err),
			Timestamp: Timestamp(clock()),
		})
	}
}
