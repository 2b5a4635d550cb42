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

package errors

import (
	"errors"
)

// fleet.

var (
	ErrEmptyLabel     = errors.New("metric label must not be empty")
	ErrDuplicateLabel = errors.New("duplicate metric label")
	ErrNegativeValue  = errors.New("metric value must not be negative")
	ErrInvalidBounds  = errors.New("invalid policy bounds")
	ErrValueOverflow  = errors.New("metric value overflow")
	ErrUnknownPolicy  = errors.New("unknown metric policy")
	ErrNoSnapshot     = errors.New("no fleet stats snapshot available")
	ErrNilStore       = errors.New("fleet store is nil")
	ErrTickPanic      = errors.New("fleet stats tick panicked")
)

// config.

var (
	ErrWrongVerboseLevel = errors.New("wrong verbose level")
	ErrConfigNotLoaded   = errors.New("configuration not loaded")
	ErrInvalidMemLimit   = errors.New("invalid memory limit")
)

// server.

var (
	ErrListen = errors.New("unable to bind listen address")
)
