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

// Package loopsfx holds the background loops of the fleetstats server. Every loop
// is owned by one service with Start and Stop, driven by the fx lifecycle.
package loopsfx

import (
	"context"
	"sync"
	"time"
)

// loopState is the bookkeeping shared by the looping services.
type loopState struct {
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	timer   *time.Timer
	wg      sync.WaitGroup
	running bool
}

// stopLoop stops the timer, cancels the loop context and waits for the loop
// goroutines, honoring the stopCtx deadline. It is a no-op when not running.
func stopLoop(st *loopState, stopCtx context.Context) error {
	st.mu.Lock()

	if !st.running {
		st.mu.Unlock()

		return nil
	}

	cancel := st.cancel
	timer := st.timer
	st.running = false
	st.cancel = nil
	st.ctx = nil
	st.timer = nil

	st.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		st.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-stopCtx.Done():
		return stopCtx.Err()
	}
}

// runEvery calls fn after every interval measured from the end of the previous
// call, until ctx is done.
func runEvery(ctx context.Context, timer *time.Timer, interval time.Duration, fn func(context.Context)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			fn(ctx)

			timer.Reset(interval)
		}
	}
}
