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

package signalsfx

import (
	"context"

	"github.com/speedforceev/fleetstats/server/app/loopsfx"
	"github.com/speedforceev/fleetstats/server/app/reloadfx"
	"go.uber.org/fx"
)

// Module registers the signal Controller with the fx lifecycle. SIGHUP is routed to
// the reload manager and SIGUSR1 to the fleet stats scheduler.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(func(m *reloadfx.Manager) ReloadRunner { return m }),
		fx.Provide(func(s *loopsfx.TickService) TickRunner { return tickRunner{s} }),
		fx.Provide(NewNotifier),
		fx.Provide(NewController),
		fx.Invoke(func(lc fx.Lifecycle, c *Controller) {
			lc.Append(fx.Hook{
				OnStart: c.Start,
				OnStop:  c.Stop,
			})
		}),
	)
}

type tickRunner struct {
	svc *loopsfx.TickService
}

func (t tickRunner) TickNow(ctx context.Context) error {
	_, err := t.svc.TickNow(ctx)

	return err
}
