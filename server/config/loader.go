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

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// LoadOptions selects the sources Load reads from.
type LoadOptions struct {
	// File is an optional configuration file.
	File string

	// Format overrides the file type detection (yaml, json, toml, ...).
	Format string

	// Flags, when set, override every other source for the flags they define.
	Flags *pflag.FlagSet
}

// envAliases lists the unprefixed variable names honored next to FLEETSTATS_<KEY>.
var envAliases = map[string][]string{
	"port":                   {"PORT"},
	"environment":            {"ENVIRONMENT", "NODE_ENV"},
	"cors_origin":            {"CORS_ORIGIN"},
	"enable_request_logging": {"ENABLE_REQUEST_LOGGING"},
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"port":        "port",
	"environment": "environment",
	"log-level":   "log_level",
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_host", "")
	v.SetDefault("port", definitions.DefaultPort)
	v.SetDefault("environment", string(definitions.EnvDevelopment))
	v.SetDefault("service_name", definitions.ServiceName)
	v.SetDefault("instance_name", "")

	v.SetDefault("cors_origin", "")
	v.SetDefault("enable_request_logging", false)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format_json", false)
	v.SetDefault("log_color", false)
	v.SetDefault("log_color_theme", "light")

	v.SetDefault("rate_limit_per_second", 0)
	v.SetDefault("rate_limit_burst", 20)

	v.SetDefault("http_compression", true)
	v.SetDefault("http_read_timeout", 15*time.Second)
	v.SetDefault("http_write_timeout", 15*time.Second)
	v.SetDefault("shutdown_timeout", definitions.FxStopTimeout)
	v.SetDefault("enable_pprof", false)

	v.SetDefault("process_stats_interval", definitions.ProcessStatsInterval)
	v.SetDefault("memory_limit", "500M")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "otlphttp")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.log_export_results", false)
	v.SetDefault("tracing.sampler_ratio", 1.0)
	v.SetDefault("tracing.propagators", []string{})
	v.SetDefault("tracing.service_name", "")
}

func bindEnv(v *viper.Viper) error {
	prefix := strings.ToUpper(definitions.EnvPrefix) + "_"

	for key, aliases := range envAliases {
		names := append([]string{prefix + strings.ToUpper(key)}, aliases...)

		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}

	v.SetEnvPrefix(definitions.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(false)
	v.AutomaticEnv()

	return nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	return nil
}

// Load reads, decodes and validates the configuration.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind environment: %w", err)
	}

	if err := bindFlags(v, opts.Flags); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)

		if opts.Format != "" {
			v.SetConfigType(opts.Format)
		}

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", opts.File, err)
		}
	}

	cfg := &Config{}

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewFlagSet returns the command line flags understood by the server.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)

	fs.String("config", "", "path to configuration file")
	fs.String("config-format", "", "configuration file format (yaml, json, toml, ...)")
	fs.Bool("version", false, "print version and exit")
	fs.Int("port", definitions.DefaultPort, "HTTP port")
	fs.String("environment", string(definitions.EnvDevelopment), "deployment environment")
	fs.Var(&Verbosity{name: "info", verboseLevel: definitions.LogLevelInfo}, "log-level", "log level (none, error, warn, info, debug)")

	return fs
}
