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

// Package bootfx runs the steps that happen before the fx application is built:
// command line parsing, configuration loading and process level settings.
package bootfx

import (
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"runtime"
	"time"

	"github.com/speedforceev/fleetstats/server/config"
	"github.com/spf13/pflag"
)

// Boot is the result of the pre-fx startup steps.
type Boot struct {
	Config      *config.Config
	LoadOptions config.LoadOptions
}

// ParseFlags parses args. It returns exit=true when the process should stop
// right away, e.g. after printing the version.
func ParseFlags(args []string, version string, stdout io.Writer) (config.LoadOptions, bool, error) {
	fs := config.NewFlagSet("fleetstats")
	fs.SetOutput(stdout)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return config.LoadOptions{}, true, nil
		}

		return config.LoadOptions{}, false, err
	}

	if v, _ := fs.GetBool("version"); v {
		fmt.Fprintln(stdout, "Version: ", version)

		return config.LoadOptions{}, true, nil
	}

	file, _ := fs.GetString("config")
	format, _ := fs.GetString("config-format")

	return config.LoadOptions{File: file, Format: format, Flags: fs}, false, nil
}

// SetupConfiguration loads the configuration and applies the process level settings.
func SetupConfiguration(opts config.LoadOptions) (*Boot, error) {
	setTimeZone()

	if opts.File != "" {
		if _, err := os.Stat(opts.File); os.IsNotExist(err) {
			return nil, fmt.Errorf("specified configuration file does not exist: %s", opts.File)
		}
	}

	cfg, err := config.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("unable to load configuration: %w", err)
	}

	EnableBlockProfile(cfg)

	return &Boot{Config: cfg, LoadOptions: opts}, nil
}

// EnableBlockProfile turns on block profiling while pprof routes are mounted.
func EnableBlockProfile(cfg *config.Config) {
	if cfg.PprofEnabled() {
		runtime.SetBlockProfileRate(1)
	} else {
		runtime.SetBlockProfileRate(0)
	}
}

// setTimeZone honors TZ. Logging is not configured yet, so errors go to the stdlib logger.
func setTimeZone() {
	tz := os.Getenv("TZ")
	if tz == "" {
		return
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		stdlog.Printf("Error loading location '%s': %v", tz, err)

		return
	}

	time.Local = loc
}
