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

// Package definitions holds the constants shared across the fleetstats server packages.
package definitions

import "time"

const (
	// ServiceName is the default service name reported by /health and used for tracing.
	ServiceName = "speedForceEV-server"

	// DefaultPort is the default HTTP port.
	DefaultPort = 3001

	// EnvPrefix is the prefix for all environment variables read by viper.
	EnvPrefix = "fleetstats"
)

const (
	// FleetTickInterval is the fixed period between two mutation passes of the fleet store.
	FleetTickInterval = 20 * time.Minute

	// ProcessStatsInterval is the default period of the process stats loop.
	ProcessStatsInterval = 60 * time.Second

	// FxStopTimeout bounds the total time spent in fx OnStop hooks.
	FxStopTimeout = 10 * time.Second
)

// HTTP routes.
const (
	RouteLiveFleetStats = "/api/live-fleet-stats"
	RouteHealth         = "/health"
	RouteMetrics        = "/metrics"
	RoutePprofPrefix    = "/debug/pprof"
)

// Response messages.
const (
	MsgInternalServerError = "Internal server error"
	MsgRouteNotFound       = "Route not found"
	MsgRateLimitExceeded   = "Rate limit exceeded"
	MsgOriginNotAllowed    = "Not allowed by CORS"
)

// Health status values.
const (
	HealthStatusOK    = "ok"
	HealthStatusError = "error"
)

// TimestampLayout renders UTC timestamps with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// CtxGUIDKey is the gin context key holding the request GUID.
const CtxGUIDKey = "guid"

// Log levels.
const (
	LogLevelNone = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Log keys.
const (
	LogKeyMsg          = "msg"
	LogKeyError        = "error"
	LogKeyGUID         = "guid"
	LogKeyInstance     = "instance"
	LogKeyClientIP     = "client_ip"
	LogKeyMethod       = "method"
	LogKeyProtocol     = "protocol"
	LogKeyHTTPStatus   = "status"
	LogKeyLatency      = "latency"
	LogKeyUserAgent    = "user_agent"
	LogKeyUriPath      = "uri_path"
	LogKeyService      = "service"
	LogKeyEnvironment  = "environment"
	LogKeyAddress      = "address"
	LogKeyGeneration   = "generation"
	LogKeyInterval     = "interval"
	LogKeyPanic        = "panic"
	LogKeyRSS          = "rss"
	LogKeyMemoryLimit  = "memory_limit"
	LogKeyVersion      = "version"
	LogKeyEndpoint     = "endpoint"
	LogKeyIncrementSfx = "_increment"
)

// NotAvailable is logged when a value cannot be determined.
const NotAvailable = "N/A"
