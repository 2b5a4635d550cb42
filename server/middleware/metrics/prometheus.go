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

package metrics

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/speedforceev/fleetstats/server/stats"
)

// unmatchedPath labels requests that did not hit a registered route, keeping label cardinality bounded.
const unmatchedPath = "unmatched"

// PrometheusMiddleware is a Gin middleware for tracking HTTP request metrics.
// It records request counts per route and status and the response time per route.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		path := ctx.FullPath()
		if path == "" {
			path = unmatchedPath
		}

		timer := prometheus.NewTimer(stats.HttpResponseTimeSecondsHist.WithLabelValues(path))

		ctx.Next()

		timer.ObserveDuration()
		stats.HttpRequestsTotalCounter.WithLabelValues(path, strconv.Itoa(ctx.Writer.Status())).Inc()
	}
}
