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
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/speedforceev/fleetstats/server/app/configfx"
	"github.com/speedforceev/fleetstats/server/app/reloadfx"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/log/level"
	"github.com/speedforceev/fleetstats/server/stats"
)

// ProcessStatsService periodically samples CPU usage and the process RSS and warns
// when the RSS is above the configured memory limit.
type ProcessStatsService struct {
	loopState

	interval    time.Duration
	memoryLimit atomic.Uint64
	logger      *slog.Logger

	sampleCPU func() (bool, error)
	readRSS   func() (uint64, error)

	overLimit bool
}

// NewProcessStatsService creates a stopped service. A zero memoryLimit disables the RSS check.
func NewProcessStatsService(interval time.Duration, memoryLimit uint64, logger *slog.Logger) *ProcessStatsService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &ProcessStatsService{
		interval:  interval,
		logger:    logger,
		sampleCPU: stats.NewCPUSampler().Sample,
		readRSS:   stats.ReadRSS,
	}

	s.memoryLimit.Store(memoryLimit)

	return s
}

// MemoryLimit returns the RSS limit in bytes; zero means unlimited.
func (s *ProcessStatsService) MemoryLimit() uint64 {
	return s.memoryLimit.Load()
}

// SetMemoryLimit replaces the RSS limit. It takes effect with the next sample.
func (s *ProcessStatsService) SetMemoryLimit(limit uint64) {
	s.memoryLimit.Store(limit)
}

// Start records a CPU baseline and spawns the sampling loop.
func (s *ProcessStatsService) Start(parent context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if _, err := s.sampleCPU(); err != nil {
		level.Warn(s.logger).Log(definitions.LogKeyMsg, "CPU statistics not available", definitions.LogKeyError, err)
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

		runEvery(loopCtx, loopTimer, s.interval, s.sample)
	}(ctx, timer)

	return nil
}

// Stop terminates the sampling loop.
func (s *ProcessStatsService) Stop(stopCtx context.Context) error {
	return stopLoop(&s.loopState, stopCtx)
}

func (s *ProcessStatsService) sample(_ context.Context) {
	if _, err := s.sampleCPU(); err != nil {
		level.Debug(s.logger).Log(definitions.LogKeyMsg, "CPU sample failed", definitions.LogKeyError, err)
	}

	rss, err := s.readRSS()
	if err != nil {
		level.Debug(s.logger).Log(definitions.LogKeyMsg, "RSS sample failed", definitions.LogKeyError, err)

		return
	}

	stats.ProcessRSSBytes.Set(float64(rss))

	limit := s.memoryLimit.Load()
	if limit == 0 {
		s.overLimit = false

		return
	}

	if rss <= limit {
		if s.overLimit {
			level.Info(s.logger).Log(
				definitions.LogKeyMsg, "Process memory back below limit",
				definitions.LogKeyRSS, humanize.Bytes(rss),
				definitions.LogKeyMemoryLimit, humanize.Bytes(limit),
			)
		}

		s.overLimit = false

		return
	}

	s.overLimit = true

	stats.ProcessMemoryLimitExceeded.Inc()

	level.Warn(s.logger).Log(
		definitions.LogKeyMsg, "Process memory above limit",
		definitions.LogKeyRSS, humanize.Bytes(rss),
		definitions.LogKeyMemoryLimit, humanize.Bytes(limit),
	)
}

// MemoryLimitReloader applies memory_limit after a configuration reload.
type MemoryLimitReloader struct {
	svc *ProcessStatsService
}

func NewMemoryLimitReloader(svc *ProcessStatsService) *MemoryLimitReloader {
	return &MemoryLimitReloader{svc: svc}
}

func (r *MemoryLimitReloader) Name() string {
	return "memory_limit"
}

func (r *MemoryLimitReloader) Order() int {
	return 20
}

func (r *MemoryLimitReloader) ApplyConfig(_ context.Context, snap configfx.Snapshot) error {
	if snap.Config == nil || r.svc == nil {
		return nil
	}

	limit := snap.Config.MemoryLimitBytes()
	if limit != r.svc.MemoryLimit() {
		level.Info(r.svc.logger).Log(definitions.LogKeyMsg, "Memory limit changed", definitions.LogKeyMemoryLimit, humanize.Bytes(limit))
	}

	r.svc.SetMemoryLimit(limit)

	return nil
}

var _ reloadfx.Reloadable = (*MemoryLimitReloader)(nil)
