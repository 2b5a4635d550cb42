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
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/handler/common"
	"github.com/speedforceev/fleetstats/server/handler/registry"
	"github.com/speedforceev/fleetstats/server/log/level"
	mdcors "github.com/speedforceev/fleetstats/server/middleware/cors"
	mdlimit "github.com/speedforceev/fleetstats/server/middleware/limit"
	mdlog "github.com/speedforceev/fleetstats/server/middleware/logging"
	mdmet "github.com/speedforceev/fleetstats/server/middleware/metrics"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// WithTracing adds server spans for every request when tracing is enabled.
func (r *Router) WithTracing(serviceName string) *Router {
	if !r.Cfg.Tracing.Enabled {
		return r
	}

	r.Engine.Use(otelgin.Middleware(serviceName))

	return r
}

// WithRequestLogging installs the access log, or only the request GUID when the access log is off.
func (r *Router) WithRequestLogging() *Router {
	if r.Cfg.EnableRequestLogging {
		r.Engine.Use(mdlog.LoggerMiddleware(r.Logger))
	} else {
		r.Engine.Use(mdlog.GUIDMiddleware())
	}

	return r
}

func (r *Router) WithRecovery() *Router {
	r.Engine.Use(common.Recovery(r.Cfg.Env(), r.Logger, r.now))

	return r
}

func (r *Router) WithMetricsMiddleware() *Router {
	r.Engine.Use(mdmet.PrometheusMiddleware())

	return r
}

func (r *Router) WithCORS() *Router {
	r.Engine.Use(mdcors.New(mdcors.Policy{Origins: r.Cfg.CORSOrigins(), Now: r.now}))

	return r
}

func (r *Router) WithRateLimit() *Router {
	if !r.Cfg.RateLimitEnabled() {
		return r
	}

	limiter := mdlimit.NewIPRateLimiter(mdlimit.Rate(r.Cfg.RateLimitPerSecond), r.Cfg.RateLimitBurst)
	r.Engine.Use(limiter.Middleware())

	return r
}

func (r *Router) WithResponseCompression() *Router {
	if !r.Cfg.HTTPCompression {
		return r
	}

	r.Engine.Use(gzip.Gzip(gzip.DefaultCompression))

	return r
}

func (r *Router) WithErrorResponder() *Router {
	r.Engine.Use(common.ErrorResponder(r.Cfg.Env(), r.now))

	return r
}

// WithPprof registers the profiling endpoints in development-like environments only.
func (r *Router) WithPprof() *Router {
	if !r.Cfg.PprofEnabled() {
		return r
	}

	pprof.Register(r.Engine, definitions.RoutePprofPrefix)

	level.Warn(r.Logger).Log(definitions.LogKeyMsg, "Profiling endpoints enabled", definitions.LogKeyUriPath, definitions.RoutePprofPrefix)

	return r
}

func (r *Router) WithRoutes(registrars ...registry.Registrar) *Router {
	registry.RegisterAll(r.Engine, registrars...)

	return r
}

func (r *Router) WithNotFound() *Router {
	r.Engine.NoRoute(common.NotFound(r.now))

	return r
}

// Default assembles the full middleware chain and the given routes in serving order.
func (r *Router) Default(serviceName string, registrars ...registry.Registrar) *gin.Engine {
	return r.
		WithTracing(serviceName).
		WithRequestLogging().
		WithRecovery().
		WithMetricsMiddleware().
		WithCORS().
		WithRateLimit().
		WithResponseCompression().
		WithErrorResponder().
		WithPprof().
		WithRoutes(registrars...).
		WithNotFound().
		Build()
}
