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

// Package common holds the JSON envelopes and fallback handlers shared by all routes.
package common

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/speedforceev/fleetstats/server/definitions"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SuccessResponse wraps a successful payload.
type SuccessResponse struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the body of every failed request outside /health.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Path      string `json:"path,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Timestamp renders t as ISO-8601 UTC with milliseconds.
func Timestamp(t time.Time) string {
	return t.UTC().Format(definitions.TimestampLayout)
}

// Clock returns now when set, otherwise time.Now.
func Clock(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}

	return now
}

// WriteJSON encodes body with jsoniter and writes it. Nothing is written when encoding fails.
func WriteJSON(ctx *gin.Context, status int, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	ctx.Data(status, gin.MIMEJSON, payload)

	return nil
}

// ErrorMessage hides err in production-like environments.
func ErrorMessage(env definitions.Environment, err error) string {
	if err == nil || env.IsProductionLike() {
		return definitions.MsgInternalServerError
	}

	return err.Error()
}

// AbortWithError answers 500 with the environment dependent message and stops the chain.
func AbortWithError(ctx *gin.Context, env definitions.Environment, now func() time.Time, err error) {
	_ = ctx.Error(err)

	_ = WriteJSON(ctx, http.StatusInternalServerError, ErrorResponse{
		Error:     ErrorMessage(env, err),
		Timestamp: Timestamp(Clock(now)()),
	})

	ctx.Abort()
}
