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

// Package stats owns the Prometheus collectors of the fleetstats server.
package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/speedforceev/fleetstats/server/fleet"
)

// Tick results.
const (
	TickResultOK    = "ok"
	TickResultError = "error"
	TickResultPanic = "panic"
)

var (
	// HttpRequestsTotalCounter counts HTTP requests per route and status.
	HttpRequestsTotalCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Number of HTTP requests.",
		},
		[]string{"path", "status"})

	// HttpResponseTimeSecondsHist observes request latency per route.
	HttpResponseTimeSecondsHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_time_seconds",
			Help: "Duration of HTTP requests.",
		},
		[]string{"path"})

	// FleetMetricValue mirrors the current value of every fleet metric.
	FleetMetricValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleet_metric_value",
		Help: "Current value of a fleet metric",
	}, []string{"label"})

	// FleetGeneration is the generation of the published fleet snapshot.
	FleetGeneration = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_generation",
		Help: "Number of mutation passes applied to the fleet stats",
	})

	// FleetTicksTotal counts scheduler ticks by result.
	FleetTicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_ticks_total",
		Help: "Number of fleet stats ticks by result",
	}, []string{"result"})

	FleetTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleet_tick_duration_seconds",
		Help:    "Time spent in one fleet stats tick",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	})

	// ProcessRSSBytes is the resident set size of the server process.
	ProcessRSSBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "process_rss_bytes",
		Help: "Resident set size of the fleetstats process",
	})

	ProcessMemoryLimitExceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "process_memory_limit_exceeded_total",
		Help: "Number of samples where the RSS was above the configured memory limit",
	})

	// HostCPUUsage is the share of host CPU time per mode between two samples.
	HostCPUUsage = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleetstats_host_cpu_usage_percent",
		Help: "Host CPU usage in percent between two process samples",
	}, []string{"mode"})
)

// ObserveFleet publishes a fleet snapshot to the gauges.
func ObserveFleet(c *fleet.Collection) {
	if c == nil {
		return
	}

	for _, m := range c.Metrics() {
		FleetMetricValue.WithLabelValues(fleet.LogKey(m.Label)).Set(float64(m.Value))
	}

	FleetGeneration.Set(float64(c.Generation()))
}

// FleetObserver adapts ObserveFleet to a fleet.Observer.
func FleetObserver(result fleet.TickResult) {
	ObserveFleet(result.Collection)
}
