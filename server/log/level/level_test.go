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

package level

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ctx   context.Context
	level slog.Level
	msg   string
	attrs map[string]string
}

type memHandler struct {
	mu      sync.Mutex
	min     slog.Level
	records []record
}

func (h *memHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	return lvl >= h.min
}

func (h *memHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	attrs := map[string]string{}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()

		return true
	})

	h.records = append(h.records, record{ctx: ctx, level: r.Level, msg: r.Message, attrs: attrs})

	return nil
}

func (h *memHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *memHandler) WithGroup(string) slog.Handler      { return h }

func TestInfoUsesMsgKey(t *testing.T) {
	h := &memHandler{min: slog.LevelInfo}

	require.NoError(t, Info(slog.New(h)).Log("msg", "Fleet stats updated", "active", 3100, "kilometers", "70,00,150"))
	require.Len(t, h.records, 1)

	r := h.records[0]
	assert.Equal(t, slog.LevelInfo, r.level)
	assert.Equal(t, "Fleet stats updated", r.msg)
	assert.Equal(t, "3100", r.attrs["active"])
	assert.Equal(t, "70,00,150", r.attrs["kilometers"])
}

func TestDefaultMessagePerLevel(t *testing.T) {
	h := &memHandler{min: slog.LevelDebug}
	logger := slog.New(h)

	_ = Debug(logger).Log("k", 1)
	_ = Warn(logger).Log("k", 2)
	_ = Error(logger).Log("k", 3)

	require.Len(t, h.records, 3)
	assert.Equal(t, "debug", h.records[0].msg)
	assert.Equal(t, "warn", h.records[1].msg)
	assert.Equal(t, "error", h.records[2].msg)
}

func TestDisabledLevelIsSkipped(t *testing.T) {
	h := &memHandler{min: slog.LevelWarn}

	_ = Info(slog.New(h)).Log("msg", "dropped")

	assert.Empty(t, h.records)
}

func TestMalformedKeyvals(t *testing.T) {
	h := &memHandler{min: slog.LevelDebug}

	_ = Debug(slog.New(h)).Log("msg", "m", "ok", 1, 42, "ignored", "trailing")

	require.Len(t, h.records, 1)
	assert.Equal(t, map[string]string{"ok": "1"}, h.records[0].attrs)
}

func TestErrorsAndTypedNil(t *testing.T) {
	h := &memHandler{min: slog.LevelDebug}

	var nilErr *nilError

	_ = Error(slog.New(h)).Log("error", errors.New("boom"), "typed", nilErr, "plain", nil)

	require.Len(t, h.records, 1)
	assert.Equal(t, "boom", h.records[0].attrs["error"])
	assert.Equal(t, "<nil>", h.records[0].attrs["typed"])
	assert.Equal(t, "<nil>", h.records[0].attrs["plain"])
}

func TestWithContextForwardsContext(t *testing.T) {
	type ctxKey struct{}

	h := &memHandler{min: slog.LevelDebug}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")

	_ = WithContext(ctx, slog.New(h)).Log("k", "v")

	require.Len(t, h.records, 1)
	assert.Equal(t, "value", h.records[0].ctx.Value(ctxKey{}))
}

type nilError struct{}

func (*nilError) Error() string { return "nil error" }
