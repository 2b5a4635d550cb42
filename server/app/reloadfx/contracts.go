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

// Package reloadfx applies a reloaded configuration to the running components.
package reloadfx

import (
	"context"

	"github.com/speedforceev/fleetstats/server/app/configfx"
	"go.uber.org/fx"
)

// Reloadable is a component that can apply a new configuration snapshot without a restart.
//
// Lower Order values are applied first; equal orders are applied by name.
type Reloadable interface {
	Name() string
	Order() int
	ApplyConfig(ctx context.Context, snap configfx.Snapshot) error
}

// ReloadableOut registers a Reloadable in the "reloadables" fx group.
type ReloadableOut struct {
	fx.Out

	Reloadable Reloadable `group:"reloadables"`
}
