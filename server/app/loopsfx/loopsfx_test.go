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
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/speedforceev/fleetstats/server/app/configfx"
	"github.com/speedforceev/fleetstats/server/config"
	fleeterrors "github.com/speedforceev/fleetstats/server/errors"
	"github.com/speedforceev/fleetstats/server/fleet"
	"github.com/speedforceev/fleetstats/server/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTicker counts calls and runs an optional hook per call.
type fakeTicker struct {
	calls atomic.Int64
	hook  func(n int64) error
}

func (f *fakeTicker) Tick() (fleet.TickResult, error) {
	n := f.calls.Add(1)

	if f.hook != nil {
		if err := f.hook(n); err != nil {
			return fleet.TickResult{}, err
		}
	}

	return fleet.TickResult{Generation: uint64(n)}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTickServiceTicksUntilStopped(t *testing.T) {
	ft := &fakeTicker{}
	svc := NewTickService(ft, 5*time.Millisecond, discardLogger())

	require.NoError(t, svc.Start(t.Context()))
	require.NoError(t, svc.Start(t.Context()))

	assert.Eventually(t, func() bool { return ft.calls.Load() >= 3 }, 2*time.Second, time.Millisecond)

	require.NoError(t, svc.Stop(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))

	after := ft.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, ft.calls.Load())
}

func TestTickServiceStopsWithParentContext(t *testing.T) {
	ft := &fakeTicker{}
	svc := NewTickService(ft, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))

	cancel()

	require.NoError(t, svc.Stop(context.Background()))
	assert.Zero(t, ft.calls.Load())
}

func TestTickServiceSurvivesErrorsAndPanics(t *testing.T) {
	ft := &fakeTicker{hook: func(n int64) error {
		switch n {
		case 1:
			panic("mutation exploded")
		case 2:
			return errors.New("mutation failed")
		}

		return nil
	}}

	panicsBefore := testutil.ToFloat64(stats.FleetTicksTotal.WithLabelValues(stats.TickResultPanic))
	errorsBefore := testutil.ToFloat64(stats.FleetTicksTotal.WithLabelValues(stats.TickResultError))

	svc := NewTickService(ft, 2*time.Millisecond, discardLogger())
	require.NoError(t, svc.Start(t.Context()))

	assert.Eventually(t, func() bool { return ft.calls.Load() >= 4 }, 2*time.Second, time.Millisecond)
	require.NoError(t, svc.Stop(context.Background()))

	assert.Equal(t, panicsBefore+1, testutil.ToFloat64(stats.FleetTicksTotal.WithLabelValues(stats.TickResultPanic)))
	assert.Equal(t, errorsBefore+1, testutil.ToFloat64(stats.FleetTicksTotal.WithLabelValues(stats.TickResultError)))
}

func TestTickNowRecoversPanic(t *testing.T) {
	ft := &fakeTicker{hook: func(int64) error { panic("boom") }}
	svc := NewTickService(ft, time.Hour, discardLogger())

	res, err := svc.TickNow(context.Background())

	assert.ErrorIs(t, err, fleeterrors.ErrTickPanic)
	assert.Zero(t, res.Generation)
}

func TestTickNowAdvancesStore(t *testing.T) {
	store, err := fleet.NewStore(fleet.DefaultCollection(), fleet.WithRand(fleet.NewRand(5)), fleet.WithLogger(discardLogger()))
	require.NoError(t, err)

	svc := NewDefaultTickService(store, discardLogger())
	assert.Equal(t, 20*time.Minute, svc.Interval())

	res, err := svc.TickNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), res.Generation)
	assert.Same(t, res.Collection, store.Snapshot())

	inc, ok := res.Increment(fleet.LabelKilometers)
	require.True(t, ok)

	km, _ := store.Snapshot().Lookup(fleet.LabelKilometers)
	assert.Equal(t, fleet.KilometersBase+inc, km.Value)
}

func TestTickServiceNilStore(t *testing.T) {
	svc := NewDefaultTickService(nil, discardLogger())

	assert.ErrorIs(t, svc.Start(context.Background()), fleeterrors.ErrNilStore)

	_, err := svc.TickNow(context.Background())
	assert.ErrorIs(t, err, fleeterrors.ErrNilStore)

	assert.NoError(t, svc.Stop(context.Background()))
}

func TestTickServiceStopHonorsDeadline(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	ft := &fakeTicker{hook: func(n int64) error {
		if n == 1 {
			close(entered)
			<-release
		}

		return nil
	}}

	svc := NewTickService(ft, time.Millisecond, discardLogger())
	require.NoError(t, svc.Start(context.Background()))

	<-entered

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, svc.Stop(stopCtx), context.DeadlineExceeded)

	close(release)
	svc.wg.Wait()
}

func TestProcessStatsServiceStartStop(t *testing.T) {
	svc := NewProcessStatsService(5*time.Millisecond, 0, discardLogger())

	var samples atomic.Int64

	svc.sampleCPU = func() (bool, error) {
		samples.Add(1)

		return true, nil
	}
	svc.readRSS = func() (uint64, error) { return 1024, nil }

	require.NoError(t, svc.Start(t.Context()))
	assert.Eventually(t, func() bool { return samples.Load() >= 3 }, 2*time.Second, time.Millisecond)
	require.NoError(t, svc.Stop(context.Background()))
}

func TestProcessStatsServiceMemoryLimit(t *testing.T) {
	var rss uint64

	svc := NewProcessStatsService(time.Hour, 500_000_000, discardLogger())
	svc.sampleCPU = func() (bool, error) { return false, errors.New("no cpu stats") }
	svc.readRSS = func() (uint64, error) { return rss, nil }

	before := testutil.ToFloat64(stats.ProcessMemoryLimitExceeded)

	rss = 400_000_000
	svc.sample(context.Background())
	assert.False(t, svc.overLimit)
	assert.Equal(t, float64(rss), testutil.ToFloat64(stats.ProcessRSSBytes))

	rss = 600_000_000
	svc.sample(context.Background())
	assert.True(t, svc.overLimit)
	assert.Equal(t, before+1, testutil.ToFloat64(stats.ProcessMemoryLimitExceeded))

	rss = 100_000_000
	svc.sample(context.Background())
	assert.False(t, svc.overLimit)
}

func TestProcessStatsServiceRSSError(t *testing.T) {
	svc := NewProcessStatsService(time.Hour, 1, discardLogger())
	svc.sampleCPU = func() (bool, error) { return true, nil }
	svc.readRSS = func() (uint64, error) { return 0, errors.New("no procfs") }

	assert.NotPanics(t, func() { svc.sample(context.Background()) })
	assert.False(t, svc.overLimit)
}

func TestMemoryLimitReloader(t *testing.T) {
	svc := NewProcessStatsService(time.Hour, 500_000_000, discardLogger())
	svc.sampleCPU = func() (bool, error) { return true, nil }
	svc.readRSS = func() (uint64, error) { return 300_000_000, nil }

	t.Setenv("FLEETSTATS_MEMORY_LIMIT", "200M")

	cfg, err := config.Load(config.LoadOptions{})
	require.NoError(t, err)

	r := NewMemoryLimitReloader(svc)
	assert.Equal(t, "memory_limit", r.Name())

	require.NoError(t, r.ApplyConfig(context.Background(), configfx.Snapshot{Config: cfg}))
	assert.Equal(t, uint64(200_000_000), svc.MemoryLimit())

	svc.sample(context.Background())
	assert.True(t, svc.overLimit)

	require.NoError(t, r.ApplyConfig(context.Background(), configfx.Snapshot{}))
	assert.Equal(t, uint64(200_000_000), svc.MemoryLimit())
}
