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

// Package cors builds the cross-origin policy of the HTTP server.
package cors

import (
	"net/http"
	"slices"
	"strings"
	"time"

	ginCors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/handler/common"
)

const preflightMaxAge = 12 * time.Hour

// Policy describes which browser origins may read the API.
type Policy struct {
	// Origins is the allow list. An empty list allows every origin without credentials.
	Origins []string

	// Now stamps rejection bodies. Defaults to time.Now.
	Now func() time.Time
}

// Config translates the policy into a gin-contrib/cors configuration. An explicit allow list
// permits credentials, the wildcard policy does not.
func (p Policy) Config() ginCors.Config {
	cfg := ginCors.Config{
		AllowMethods:              []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:              []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:                    preflightMaxAge,
		OptionsResponseStatusCode: 200,
	}

	if len(p.Origins) == 0 {
		cfg.AllowAllOrigins = true

		return cfg
	}

	cfg.AllowOrigins = slices.Clone(p.Origins)
	cfg.AllowCredentials = true

	return cfg
}

// Allows reports whether origin may read the API. Same-origin requests are always allowed.
func (p Policy) Allows(origin, host string) bool {
	if origin == "" || len(p.Origins) == 0 {
		return true
	}

	if origin == "http://"+host || origin == "https://"+host {
		return true
	}

	return slices.ContainsFunc(p.Origins, func(allowed string) bool {
		return strings.ToLower(allowed) == origin
	})
}

// New returns the CORS middleware for p. Rejected origins get a JSON 403 before gin-contrib/cors runs.
func New(p Policy) gin.HandlerFunc {
	next := ginCors.New(p.Config())
	now := common.Clock(p.Now)

	return func(ctx *gin.Context) {
		if !p.Allows(ctx.GetHeader("Origin"), ctx.Request.Host) {
			_ = common.WriteJSON(ctx, http.StatusForbidden, common.ErrorResponse{
				Error:     definitions.MsgOriginNotAllowed,
				Timestamp: common.Timestamp(now()),
			})

			ctx.Abort()

			return
		}

		next(ctx)
	}
}
