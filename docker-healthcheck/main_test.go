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

package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func probeConfig(url string) *viper.Viper {
	v := viper.New()
	v.Set("url", url)
	v.Set("verbose", true)
	v.Set("timeout", 2*time.Second)

	return v
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
	}{
		{name: "healthy", status: http.StatusOK, body: `{"status":"ok","service":"speedForceEV-server"}`, want: 0},
		{name: "error status", status: http.StatusOK, body: `{"status":"error"}`, want: 1},
		{name: "server error", status: http.StatusInternalServerError, body: `{"status":"error"}`, want: 1},
		{name: "not json", status: http.StatusOK, body: "pong", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var out strings.Builder

			assert.Equal(t, tt.want, check(probeConfig(srv.URL+"/health"), &out))
			assert.Contains(t, out.String(), "Checking")
		})
	}
}

func TestCheckUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var out strings.Builder

	assert.Equal(t, 1, check(probeConfig(url), &out))
	assert.Contains(t, out.String(), "Test FAILED")
}
