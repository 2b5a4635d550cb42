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

package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer

	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var seenGUID string

	r := gin.New()
	r.Use(LoggerMiddleware(logger))
	r.GET("/api/live-fleet-stats", func(ctx *gin.Context) {
		seenGUID = ctx.GetString(definitions.CtxGUIDKey)
		ctx.Status(http.StatusOK)
	})
	r.GET("/fail", func(ctx *gin.Context) {
		_ = ctx.Error(errors.New("snapshot missing"))
		ctx.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/live-fleet-stats", nil)
	req.Header.Set("User-Agent", "dashboard")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.NotEmpty(t, seenGUID)
	assert.Contains(t, buf.String(), `"guid":"`+seenGUID+`"`)
	assert.Contains(t, buf.String(), `"uri_path":"/api/live-fleet-stats"`)
	assert.Contains(t, buf.String(), `"user_agent":"dashboard"`)
	assert.Contains(t, buf.String(), `"level":"INFO"`)

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"msg":"snapshot missing"`)
}

func TestGUIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var first, second string

	r := gin.New()
	r.Use(GUIDMiddleware())
	r.GET("/x", func(ctx *gin.Context) {
		if first == "" {
			first = ctx.GetString(definitions.CtxGUIDKey)
		} else {
			second = ctx.GetString(definitions.CtxGUIDKey)
		}
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Len(t, first, 27)
	assert.NotEqual(t, first, second)
}

func TestFormatLatency(t *testing.T) {
	assert.Equal(t, "1.500ms", FormatLatency(1500*time.Microsecond))
	assert.Equal(t, "0.000ms", FormatLatency(0))
}
