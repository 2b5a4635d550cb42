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

// Package config loads the fleetstats server settings from flags, environment variables
// and an optional configuration file.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/errors"
)

// Config is the decoded and validated server configuration.
type Config struct {
	HTTPHost     string `mapstructure:"http_host"`
	Port         int    `mapstructure:"port" validate:"min=1,max=65535"`
	Environment  string `mapstructure:"environment" validate:"required"`
	ServiceName  string `mapstructure:"service_name" validate:"required"`
	InstanceName string `mapstructure:"instance_name"`

	CORSOrigin           string `mapstructure:"cors_origin"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging"`

	LogLevel      string `mapstructure:"log_level" validate:"oneof=none error warn warning info debug"`
	LogFormatJSON bool   `mapstructure:"log_format_json"`
	LogColor      bool   `mapstructure:"log_color"`
	LogColorTheme string `mapstructure:"log_color_theme" validate:"oneof=light dark"`

	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"gte=0"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst" validate:"gte=0"`

	HTTPCompression  bool          `mapstructure:"http_compression"`
	HTTPReadTimeout  time.Duration `mapstructure:"http_read_timeout" validate:"gt=0"`
	HTTPWriteTimeout time.Duration `mapstructure:"http_write_timeout" validate:"gt=0"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	EnablePprof      bool          `mapstructure:"enable_pprof"`

	ProcessStatsInterval time.Duration `mapstructure:"process_stats_interval" validate:"gt=0"`
	MemoryLimit          string        `mapstructure:"memory_limit"`

	Tracing Tracing `mapstructure:"tracing"`

	verbosity   Verbosity
	memoryLimit uint64
}

// Tracing configures OpenTelemetry.
type Tracing struct {
	Enabled      bool     `mapstructure:"enabled"`
	Exporter     string   `mapstructure:"exporter" validate:"omitempty,oneof=otlphttp none"`
	Endpoint     string   `mapstructure:"endpoint"`
	Insecure     bool     `mapstructure:"insecure"`
	SamplerRatio float64  `mapstructure:"sampler_ratio"`
	Propagators  []string `mapstructure:"propagators"`
	ServiceName  string   `mapstructure:"service_name"`

	// LogExportResults logs every successful span export at info level.
	LogExportResults bool `mapstructure:"log_export_results"`
}

// finalize derives the values that are not decoded directly.
func (c *Config) finalize() error {
	if err := c.verbosity.Set(c.LogLevel); err != nil {
		return fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}

	limit, err := parseMemoryLimit(c.MemoryLimit)
	if err != nil {
		return err
	}

	c.memoryLimit = limit

	return nil
}

func parseMemoryLimit(value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return 0, nil
	}

	limit, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", errors.ErrInvalidMemLimit, value, err)
	}

	return limit, nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.Port))
}

// Env returns the normalized environment.
func (c *Config) Env() definitions.Environment {
	return definitions.ParseEnvironment(c.Environment)
}

// LogLevelValue returns one of the definitions.LogLevel* values.
func (c *Config) LogLevelValue() int {
	return c.verbosity.Level()
}

// MemoryLimitBytes returns the RSS warning threshold. Zero disables the check.
func (c *Config) MemoryLimitBytes() uint64 {
	return c.memoryLimit
}

// AllowAllOrigins reports whether CORS accepts every origin.
func (c *Config) AllowAllOrigins() bool {
	origin := strings.TrimSpace(c.CORSOrigin)

	return origin == "" || origin == "*"
}

// CORSOrigins returns the trimmed allow list from cors_origin.
func (c *Config) CORSOrigins() []string {
	if c.AllowAllOrigins() {
		return nil
	}

	var origins []string

	for _, o := range strings.Split(c.CORSOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return origins
}

// RateLimitEnabled reports whether the per-IP rate limiter is active.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitPerSecond > 0
}

// PprofEnabled reports whether profiling routes are mounted. Never in production-like environments.
func (c *Config) PprofEnabled() bool {
	return c.EnablePprof && c.Env().IsDevelopmentLike()
}
