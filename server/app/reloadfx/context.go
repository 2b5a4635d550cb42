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

	"github.com/speedforceev/fleetstats/server/app/configfx"
)

type previousSnapshotKey struct{}

// WithPreviousSnapshot stores the snapshot that was current before the reload.
func WithPreviousSnapshot(ctx context.Context, snap configfx.Snapshot) context.Context {
	return context.WithValue(ctx, previousSnapshotKey{}, snap)
}

// PreviousSnapshotFromContext lets a Reloadable compare the old and new configuration.
func PreviousSnapshotFromContext(ctx context.Context) (configfx.Snapshot, bool) {
	snap, ok := ctx.Value(previousSnapshotKey{}).(configfx.Snapshot)

	return snap, ok
}
