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
	"strings"

	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/errors"
)

// Verbosity is the configured log level. It implements pflag.Value.
type Verbosity struct {
	verboseLevel int
	name         string
}

func (v *Verbosity) String() string {
	return v.name
}

// Set accepts "none", "error", "warn", "info" and "debug". An empty value means "none".
func (v *Verbosity) Set(value string) error {
	value = strings.ToLower(strings.TrimSpace(value))

	switch value {
	case "none", "":
		v.verboseLevel = definitions.LogLevelNone
	case "error":
		v.verboseLevel = definitions.LogLevelError
	case "warn", "warning":
		v.verboseLevel = definitions.LogLevelWarn
	case "info":
		v.verboseLevel = definitions.LogLevelInfo
	case "debug":
		v.verboseLevel = definitions.LogLevelDebug
	default:
		return errors.ErrWrongVerboseLevel
	}

	v.name = value

	return nil
}

func (v *Verbosity) Type() string {
	return "Verbosity"
}

// Level returns one of the definitions.LogLevel* values.
func (v *Verbosity) Level() int {
	return v.verboseLevel
}
