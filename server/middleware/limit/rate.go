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

package limit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/handler/common"
	"golang.org/x/time/rate"
)

// IPRateLimiter manages rate limiters for individual IP addresses.
type IPRateLimiter struct {
	ips *cache.Cache
	mu  sync.Mutex
	r   rate.Limit
	b   int
	now func() time.Time
}

// NewIPRateLimiter creates a new IPRateLimiter with the specified rate and burst.
// r: Number of tokens per second.
// b: Maximum burst size.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	if b < 1 {
		b = 1
	}

	return &IPRateLimiter{
		ips: cache.New(5*time.Minute, 10*time.Minute),
		r:   r,
		b:   b,
		now: time.Now,
	}
}

// Rate is a helper to convert float64 to rate.Limit.
func Rate(r float64) rate.Limit {
	return rate.Limit(r)
}

// GetLimiter returns the rate limiter for the given IP address.
// If no limiter exists for the IP, it creates a new one.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	if v, found := i.ips.Get(ip); found {
		return v.(*rate.Limiter)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	// Another request may have created it while we waited.
	if v, found := i.ips.Get(ip); found {
		return v.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(i.r, i.b)
	i.ips.Set(ip, limiter, cache.DefaultExpiration)

	return limiter
}

// Tracked returns the number of client addresses currently holding a limiter.
func (i *IPRateLimiter) Tracked() int {
	return i.ips.ItemCount()
}

func exempt(path string) bool {
	return path == definitions.RouteHealth || path == definitions.RouteMetrics
}

// Middleware returns a gin middleware that performs rate limiting based on the client's IP address.
// Health probes and metric scrapes are never limited.
func (i *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if exempt(ctx.Request.URL.Path) {
			ctx.Next()

			return
		}

		if !i.GetLimiter(ctx.ClientIP()).Allow() {
			_ = common.WriteJSON(ctx, http.StatusTooManyRequests, common.ErrorResponse{
				Error:     definitions.MsgRateLimitExceeded,
				Timestamp: common.Timestamp(i.now()),
			})

			ctx.Abort()

			return
		}

		ctx.Next()
	}
}
