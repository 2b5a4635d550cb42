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

// Package metrics exposes the Prometheus registry.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/speedforceev/fleetstats/server/definitions"
)

// Handler serves GET /metrics.
type Handler struct {
	gatherer prometheus.Gatherer
}

// New returns a handler for gatherer, or the default registry when gatherer is nil.
func New(gatherer prometheus.Gatherer) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Handler{gatherer: gatherer}
}

func (h *Handler) Register(router gin.IRouter) {
	// Responses are compressed by the router when http_compression is on.
	promHandler := promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{DisableCompression: true})

	router.GET(definitions.RouteMetrics, gin.WrapH(promHandler))
}
