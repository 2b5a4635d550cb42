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

// Package fleet serves the live fleet stats.
package fleet

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/errors"
	fleetstore "github.com/speedforceev/fleetstats/server/fleet"
	"github.com/speedforceev/fleetstats/server/handler/common"
	"github.com/speedforceev/fleetstats/server/log/level"
	"github.com/speedforceev/fleetstats/server/monitoring/trace"
	"go.opentelemetry.io/otel/attribute"
)

// Snapshotter returns the latest fleet stats. *fleet.Store implements it.
type Snapshotter interface {
	Snapshot() *fleetstore.Collection
}

// Handler serves GET /api/live-fleet-stats.
type Handler struct {
	store  Snapshotter
	env    definitions.Environment
	logger *slog.Logger
	now    func() time.Time
	tracer trace.Tracer
}

// New creates the handler. now may be nil.
func New(store Snapshotter, env definitions.Environment, logger *slog.Logger, now func() time.Time) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		store:  store,
		env:    env,
		logger: logger,
		now:    common.Clock(now),
		tracer: trace.New("fleetstats/handler/fleet"),
	}
}

func (h *Handler) Register(router gin.IRouter) {
	router.GET(definitions.RouteLiveFleetStats, h.liveFleetStats)
}

func (h *Handler) liveFleetStats(ctx *gin.Context) {
	_, sp := h.tracer.Start(ctx.Request.Context(), "fleet.snapshot")
	defer sp.End()

	var snap *fleetstore.Collection
	if h.store != nil {
		snap = h.store.Snapshot()
	}

	if snap == nil {
		trace.RecordError(sp, errors.ErrNoSnapshot)
		h.fail(ctx, errors.ErrNoSnapshot)

		return
	}

	sp.SetAttributes(attribute.Int64(definitions.LogKeyGeneration, int64(snap.Generation())))

	err := common.WriteJSON(ctx, http.StatusOK, common.SuccessResponse{
		Success:   true,
		Data:      snap,
		Timestamp: common.Timestamp(h.now()),
	})
	if err != nil {
		trace.RecordError(sp, err)
		h.fail(ctx, err)
	}
}

// fail answers 500 unless a response was already written.
func (h *Handler) fail(ctx *gin.Context, err error) {
	level.Error(h.logger).Log(
		definitions.LogKeyGUID, ctx.GetString(definitions.CtxGUIDKey),
		definitions.LogKeyMsg, "Failed to serve fleet stats",
		definitions.LogKeyError, err,
	)

	if ctx.Writer.Written() {
		return
	}

	common.AbortWithError(ctx, h.env, h.now, err)
}
