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

package loopsfx

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/errors"
	"github.com/speedforceev/fleetstats/server/fleet"
	"github.com/speedforceev/fleetstats/server/log/level"
	"github.com/speedforceev/fleetstats/server/monitoring/trace"
	"github.com/speedforceev/fleetstats/server/stats"
	"go.opentelemetry.io/otel/attribute"
)

// FleetTicker applies one mutation pass. *fleet.Store implements it.
type FleetTicker interface {
	Tick() (fleet.TickResult, error)
}

// TickService is the fleet stats scheduler. It calls Tick once per interval, measured
// from the end of the previous tick, until stopped. A failing or panicking tick is
// logged and the schedule continues.
type TickService struct {
	loopState

	interval time.Duration
	store    FleetTicker
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewDefaultTickService schedules store with the fixed fleet tick interval.
func NewDefaultTickService(store *fleet.Store, logger *slog.Logger) *TickService {
	var ticker FleetTicker
	if store != nil {
		ticker = store
	}

	return NewTickService(ticker, definitions.FleetTickInterval, logger)
}

// NewTickService creates a stopped scheduler for store.
func NewTickService(store FleetTicker, interval time.Duration, logger *slog.Logger) *TickService {
	if logger == nil {
		logger = slog.Default()
	}

	return &TickService{
		interval: interval,
		store:    store,
		logger:   logger,
		tracer:   trace.New("fleetstats/loopsfx"),
	}
}

// Interval returns the period between two ticks.
func (s *TickService) Interval() time.Duration {
	return s.interval
}

// Start arms the timer and spawns the tick loop. Starting a running service is a no-op.
func (s *TickService) Start(parent context.Context) error {
	if s.store == nil {
		return errors.ErrNilStore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	ctx, cancel := context.WithCancel(parent)
	timer := time.NewTimer(s.interval)

	s.ctx = ctx
	s.cancel = cancel
	s.timer = timer
	s.running = true

	s.wg.Add(1)
	go func(loopCtx context.Context, loopTimer *time.Timer) {
		defer s.wg.Done()

		runEvery(loopCtx, loopTimer, s.interval, func(ctx context.Context) {
			_, _ = s.runTick(ctx)
		})
	}(ctx, timer)

	level.Info(s.logger).Log(definitions.LogKeyMsg, "Fleet stats scheduler started", definitions.LogKeyInterval, s.interval.String())

	return nil
}

// Stop cancels the loop and waits for an in-flight tick within the stopCtx deadline.
func (s *TickService) Stop(stopCtx context.Context) error {
	if err := stopLoop(&s.loopState, stopCtx); err != nil {
		return err
	}

	level.Debug(s.logger).Log(definitions.LogKeyMsg, "Fleet stats scheduler stopped")

	return nil
}

// TickNow runs one tick synchronously, outside the schedule. Ticks stay serialized
// because the store serializes its mutation passes.
func (s *TickService) TickNow(ctx context.Context) (fleet.TickResult, error) {
	if s.store == nil {
		return fleet.TickResult{}, errors.ErrNilStore
	}

	return s.runTick(ctx)
}

func (s *TickService) runTick(ctx context.Context) (result fleet.TickResult, err error) {
	started := time.Now()

	_, sp := s.tracer.Start(ctx, "fleet.tick")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrTickPanic, r)
			result = fleet.TickResult{}

			stats.FleetTicksTotal.WithLabelValues(stats.TickResultPanic).Inc()

			level.Error(s.logger).Log(
				definitions.LogKeyMsg, "Fleet stats tick panicked",
				definitions.LogKeyPanic, fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}

		stats.FleetTickDuration.Observe(time.Since(started).Seconds())

		trace.RecordError(sp, err)
		sp.End()
	}()

	result, err = s.store.Tick()
	if err != nil {
		stats.FleetTicksTotal.WithLabelValues(stats.TickResultError).Inc()

		level.Error(s.logger).Log(definitions.LogKeyMsg, "Fleet stats tick failed", definitions.LogKeyError, err)

		return result, err
	}

	stats.FleetTicksTotal.WithLabelValues(stats.TickResultOK).Inc()

	sp.SetAttributes(attribute.Int64(definitions.LogKeyGeneration, int64(result.Generation)))

	return result, nil
}
