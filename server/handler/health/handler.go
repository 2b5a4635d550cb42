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

// Package health serves the liveness probe. It never touches the fleet store.
package health

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/handler/common"
	"github.com/speedforceev/fleetstats/server/log/level"
)

// Response is the /health body.
type Response struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Environment string `json:"environment,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// Handler serves GET /health.
type Handler struct {
	service string
	env     definitions.Environment
	logger  *slog.Logger
	now     func() time.Time
}

// New creates the handler. now may be nil.
func New(service string, env definitions.Environment, logger *slog.Logger, now func() time.Time) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{service: service, env: env, logger: logger, now: common.Clock(now)}
}

func (h *Handler) Register(router gin.IRouter) {
	router.GET(definitions.RouteHealth, h.Health)
}

// Health reports process liveness. Any failure while building the answer yields a 500
// with status "error".
func (h *Handler) Health(ctx *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.failed(ctx, fmt.Errorf("%v", r))
		}
	}()

	err := common.WriteJSON(ctx, http.StatusOK, Response{
		Status:      definitions.HealthStatusOK,
		Service:     h.service,
		Environment: h.env.String(),
		Timestamp:   common.Timestamp(h.now()),
	})
	if err != nil {
		h.failed(ctx, err)
	}
}

func (h *Handler) failed(ctx *gin.Context, err error) {
	level.Error(h.logger).Log(definitions.LogKeyMsg, "Health check failed", definitions.LogKeyError, err)

	if ctx.Writer.Written() {
		return
	}

	ctx.JSON(http.StatusInternalServerError, Response{
		Status:    definitions.HealthStatusError,
		Service:   h.service,
		Timestamp: common.Timestamp(time.Now()),
	})
}
