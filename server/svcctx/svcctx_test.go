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

package svcctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type ctxKey struct{}

func TestRootContext(t *testing.T) {
	parent := context.WithValue(context.Background(), ctxKey{}, "fleet")

	ctx, cancelFn := New(parent)
	defer cancelFn()

	assert.Equal(t, ctx, Get())
	assert.Equal(t, "fleet", Get().Value(ctxKey{}))
	assert.NoError(t, Get().Err())

	Cancel()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestNewCancelsPreviousRoot(t *testing.T) {
	first, cancelFirst := New(nil)
	defer cancelFirst()

	second, cancelSecond := New(context.Background())
	defer cancelSecond()

	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())
	assert.Equal(t, second, Get())
}
