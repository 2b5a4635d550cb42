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

package monitoring

import (
	"net"
	"os"
	"strings"

	"github.com/speedforceev/fleetstats/server/definitions"
)

// ResolveServiceName returns the first candidate that is set and does not look like an
// IP address, then the hostname, then definitions.ServiceName.
//
// Callers pass tracing.service_name, service_name and instance_name in that order.
func ResolveServiceName(candidates ...string) string {
	for _, c := range candidates {
		if s := strings.TrimSpace(c); s != "" && !looksLikeIP(s) {
			return s
		}
	}

	if h, err := os.Hostname(); err == nil {
		if s := strings.TrimSpace(h); s != "" && !looksLikeIP(s) {
			return s
		}
	}

	return definitions.ServiceName
}

func looksLikeIP(s string) bool {
	host := strings.TrimSpace(s)
	if host == "" {
		return false
	}

	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	return net.ParseIP(host) != nil
}
