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
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/speedforceev/fleetstats/server/config"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/errors"
	"github.com/speedforceev/fleetstats/server/fleet"
	"github.com/speedforceev/fleetstats/server/log/level"
)

// httpServer serves the router on a listener that is opened synchronously in Start, so a bind
// failure aborts the fx start instead of surfacing later in a goroutine.
type httpServer struct {
	srv             *http.Server
	addr            string
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// onServeError is called when Serve returns anything but http.ErrServerClosed.
	onServeError func(error)

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
	serveErr error
}

func newHTTPServer(addr string, handler http.Handler, cfg *config.Config, logger *slog.Logger, onServeError func(error)) *httpServer {
	return &httpServer{
		srv: &http.Server{
			Handler:           handler,
			ReadTimeout:       cfg.HTTPReadTimeout,
			ReadHeaderTimeout: cfg.HTTPReadTimeout,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       time.Minute,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		addr:            addr,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
		onServeError:    onServeError,
	}
}

// Start binds the listen address and serves in the background.
func (s *httpServer) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errors.ErrListen, s.addr, err)
	}

	s.listener = ln
	s.done = make(chan struct{})

	go s.serve(ln, s.done)

	return nil
}

func (s *httpServer) serve(ln net.Listener, done chan struct{}) {
	defer close(done)

	err := s.srv.Serve(ln)
	if err == nil || stderrors.Is(err, http.ErrServerClosed) {
		return
	}

	s.mu.Lock()
	s.serveErr = err
	s.mu.Unlock()

	level.Error(s.logger).Log(definitions.LogKeyMsg, "HTTP server stopped unexpectedly", definitions.LogKeyError, err)

	if s.onServeError != nil {
		s.onServeError(err)
	}
}

// Addr returns the bound address, or the configured one before Start.
func (s *httpServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}

	return s.addr
}

// Err returns the error that ended Serve unexpectedly, if any.
func (s *httpServer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.serveErr
}

// Stop drains in-flight requests for at most shutdown_timeout and the deadline of stopCtx.
func (s *httpServer) Stop(stopCtx context.Context) error {
	s.mu.Lock()
	done := s.done
	started := s.listener != nil
	s.mu.Unlock()

	if !started {
		return nil
	}

	ctx, cancel := context.WithTimeout(stopCtx, s.shutdownTimeout)
	defer cancel()

	err := s.srv.Shutdown(ctx)
	if err != nil {
		level.Warn(s.logger).Log(definitions.LogKeyMsg, "HTTP server shutdown incomplete", definitions.LogKeyError, err)

		_ = s.srv.Close()
	}

	select {
	case <-done:
	case <-ctx.Done():
	}

	level.Info(s.logger).Log(definitions.LogKeyMsg, "HTTP server stopped")

	return err
}

// logStartup prints the service banner together with the initialized fleet values.
func logStartup(logger *slog.Logger, cfg *config.Config, addr string, store *fleet.Store) {
	base := "http://" + displayAddr(addr)

	level.Info(logger).Log(
		definitions.LogKeyMsg, "Fleet stats server is running",
		definitions.LogKeyService, cfg.ServiceName,
		definitions.LogKeyEnvironment, cfg.Env().String(),
		definitions.LogKeyAddress, addr,
		definitions.LogKeyVersion, version,
		"live_fleet_stats", base+definitions.RouteLiveFleetStats,
		"health_check", base+definitions.RouteHealth,
	)

	snap := store.Snapshot()
	if snap == nil {
		return
	}

	level.Info(logger).Log(
		definitions.LogKeyMsg, "Initial fleet stats",
		definitions.LogKeyGeneration, snap.Generation(),
		"summary", store.Summary(fleet.TickResult{Generation: snap.Generation(), Collection: snap, Initial: true}),
		definitions.LogKeyInterval, definitions.FleetTickInterval.String(),
	)
}

// displayAddr replaces an unspecified host with localhost for the banner URLs.
func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}

	return net.JoinHostPort(host, port)
}
