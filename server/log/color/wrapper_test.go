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

package color

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineWrapperColorsWholeLine(t *testing.T) {
	var buf bytes.Buffer

	colors := ThemeColorMap("dark")
	logger := slog.New(NewLineWrapper(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, colors))

	logger.With("service", "fleet").Warn("slow tick", "ms", 12)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, colors[slog.LevelWarn]))
	assert.True(t, strings.HasSuffix(out, ansiReset+"\n"))
	assert.Contains(t, out, "msg=\"slow tick\"")
	assert.Contains(t, out, "service=fleet")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestLineWrapperRespectsLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(NewLineWrapper(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}, nil))
	logger.Info("hidden")

	assert.Empty(t, buf.String())
}

func TestThemeFallback(t *testing.T) {
	assert.Equal(t, ThemeColorMap("light"), ThemeColorMap("solarized"))
}
