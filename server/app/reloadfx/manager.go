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

package reloadfx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/speedforceev/fleetstats/server/app/configfx"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/log/level"
	"go.uber.org/fx"
)

// Manager coordinates a configuration reload: it swaps the snapshot via the
// configfx.Reloader and then calls every Reloadable in a deterministic order.
type Manager struct {
	mu          sync.Mutex
	reloader    configfx.Reloader
	logger      *slog.Logger
	reloadables []Reloadable
}

type managerIn struct {
	fx.In

	Reloader configfx.Reloader
	Logger   *slog.Logger

	Reloadables []Reloadable `group:"reloadables"`
}

// NewManager constructs a reload Manager.
func NewManager(in managerIn) *Manager {
	rls := make([]Reloadable, 0, len(in.Reloadables))
	for _, r := range in.Reloadables {
		if r != nil {
			rls = append(rls, r)
		}
	}

	sort.SliceStable(rls, func(i, j int) bool {
		if rls[i].Order() == rls[j].Order() {
			return rls[i].Name() < rls[j].Name()
		}

		return rls[i].Order() < rls[j].Order()
	})

	return &Manager{
		reloader:    in.Reloader,
		logger:      in.Logger,
		reloadables: rls,
	}
}

// Reload performs one reload. Reloads never overlap. Every component is called even
// when an earlier one fails; the failures are joined into the returned error.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.reloader.Current()

	snap, err := m.reloader.Reload()
	if err != nil {
		level.Error(m.logger).Log(definitions.LogKeyMsg, "Configuration reload failed", definitions.LogKeyError, err)

		return err
	}

	ctx = WithPreviousSnapshot(ctx, prev)

	var errs []error

	for _, r := range m.reloadables {
		if err := r.ApplyConfig(ctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("reloadable %s apply config failed: %w", r.Name(), err))

			level.Error(m.logger).Log(definitions.LogKeyMsg, "Apply config failed", "component", r.Name(), definitions.LogKeyError, err)
		}
	}

	if len(errs) == 0 {
		level.Info(m.logger).Log(definitions.LogKeyMsg, "Configuration reloaded", "config_version", snap.Version)
	}

	return errors.Join(errs...)
}

// Module provides the reload Manager.
func Module() fx.Option {
	return fx.Provide(NewManager)
}
