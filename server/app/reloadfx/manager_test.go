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

package reloadfx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/speedforceev/fleetstats/server/app/configfx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReloader struct {
	enter   chan struct{}
	release chan struct{}
	calls   atomic.Int64
	current configfx.Snapshot
	snap    configfx.Snapshot
	err     error
}

func (r *fakeReloader) Current() configfx.Snapshot {
	return r.current
}

func (r *fakeReloader) Reload() (configfx.Snapshot, error) {
	r.calls.Add(1)

	if r.enter != nil {
		select {
		case r.enter <- struct{}{}:
		default:
		}
	}

	if r.release != nil {
		<-r.release
	}

	return r.snap, r.err
}

type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) add(name string) {
	r.mu.Lock()
	r.calls = append(r.calls, name)
	r.mu.Unlock()
}

func (r *callRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

type recordingReloadable struct {
	name  string
	order int

	rec  *callRecorder
	err  error
	seen func(ctx context.Context, snap configfx.Snapshot)
}

func (r *recordingReloadable) Name() string { return r.name }
func (r *recordingReloadable) Order() int   { return r.order }

func (r *recordingReloadable) ApplyConfig(ctx context.Context, snap configfx.Snapshot) error {
	if r.rec != nil {
		r.rec.add(r.name)
	}

	if r.seen != nil {
		r.seen(ctx, snap)
	}

	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReloadManager_SerializesConcurrentReloads(t *testing.T) {
	reloader := &fakeReloader{
		enter:   make(chan struct{}, 1),
		release: make(chan struct{}),
		snap:    configfx.Snapshot{Version: 2},
	}

	manager := NewManager(managerIn{Reloader: reloader, Logger: discardLogger()})

	firstDone := make(chan error, 1)
	go func() { firstDone <- manager.Reload(context.Background()) }()

	select {
	case <-reloader.enter:
	case <-time.After(2 * time.Second):
		t.Fatal("first reload did not enter")
	}

	secondDone := make(chan error, 1)
	go func() { secondDone <- manager.Reload(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), reloader.calls.Load(), "second reload ran while the first was blocked")

	close(reloader.release)

	for _, done := range []chan error{firstDone, secondDone} {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("reload did not complete")
		}
	}

	assert.Equal(t, int64(2), reloader.calls.Load())
}

func TestReloadManager_CallsApplyConfigInOrder(t *testing.T) {
	rec := &callRecorder{}

	manager := NewManager(managerIn{
		Reloader: &fakeReloader{snap: configfx.Snapshot{Version: 3}},
		Logger:   discardLogger(),
		Reloadables: []Reloadable{
			&recordingReloadable{name: "b", order: 20, rec: rec},
			nil,
			&recordingReloadable{name: "c", order: 20, rec: rec},
			&recordingReloadable{name: "a", order: 10, rec: rec},
		},
	})

	require.NoError(t, manager.Reload(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, rec.snapshot())
}

func TestReloadManager_ContinuesOnComponentError(t *testing.T) {
	errBoom := errors.New("boom")
	rec := &callRecorder{}

	manager := NewManager(managerIn{
		Reloader: &fakeReloader{snap: configfx.Snapshot{Version: 4}},
		Logger:   discardLogger(),
		Reloadables: []Reloadable{
			&recordingReloadable{name: "first", order: 1, rec: rec, err: errBoom},
			&recordingReloadable{name: "second", order: 2, rec: rec},
		},
	})

	err := manager.Reload(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{"first", "second"}, rec.snapshot())
}

func TestReloadManager_ReloadErrorSkipsComponents(t *testing.T) {
	errLoad := errors.New("bad file")
	rec := &callRecorder{}

	manager := NewManager(managerIn{
		Reloader:    &fakeReloader{err: errLoad},
		Logger:      discardLogger(),
		Reloadables: []Reloadable{&recordingReloadable{name: "log", rec: rec}},
	})

	assert.ErrorIs(t, manager.Reload(context.Background()), errLoad)
	assert.Empty(t, rec.snapshot())
}

func TestReloadManager_PassesPreviousSnapshot(t *testing.T) {
	var (
		prev    configfx.Snapshot
		hasPrev bool
		got     configfx.Snapshot
	)

	manager := NewManager(managerIn{
		Reloader: &fakeReloader{current: configfx.Snapshot{Version: 1}, snap: configfx.Snapshot{Version: 2}},
		Logger:   discardLogger(),
		Reloadables: []Reloadable{&recordingReloadable{name: "log", seen: func(ctx context.Context, snap configfx.Snapshot) {
			prev, hasPrev = PreviousSnapshotFromContext(ctx)
			got = snap
		}}},
	})

	require.NoError(t, manager.Reload(context.Background()))

	require.True(t, hasPrev)
	assert.Equal(t, uint64(1), prev.Version)
	assert.Equal(t, uint64(2), got.Version)

	_, ok := PreviousSnapshotFromContext(context.Background())
	assert.False(t, ok)
}
