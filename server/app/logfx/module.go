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

package logfx

import (
	"context"

	"github.com/speedforceev/fleetstats/server/app/configfx"
	"github.com/speedforceev/fleetstats/server/app/reloadfx"
	"github.com/speedforceev/fleetstats/server/log"
	"go.uber.org/fx"
)

// Module provides the process logger and registers its level reloader.
var Module = fx.Module("logfx",
	fx.Provide(
		NewLogger,
		fx.Annotate(
			NewLevelReloader,
			fx.As(new(reloadfx.Reloadable)),
			fx.ResultTags(`group:"reloadables"`),
		),
	),
	fx.Invoke(BridgeStdLog),
)

// LevelReloader applies log_level after a configuration reload.
type LevelReloader struct{}

func NewLevelReloader() *LevelReloader {
	return &LevelReloader{}
}

func (l *LevelReloader) Name() string {
	return "log_level"
}

func (l *LevelReloader) Order() int {
	return 10
}

func (l *LevelReloader) ApplyConfig(_ context.Context, snap configfx.Snapshot) error {
	if snap.Config != nil {
		log.SetLevel(snap.Config.LogLevelValue())
	}

	return nil
}

var _ reloadfx.Reloadable = (*LevelReloader)(nil)
