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

// Package signalsfx translates OS signals into application actions.
package signalsfx

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"syscall"

	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/log/level"
	"go.uber.org/fx"
)

type ReloadRunner interface {
	// Reload triggers a configuration reload.
	Reload(ctx context.Context) error
}

type TickRunner interface {
	// TickNow runs one fleet stats tick outside the schedule.
	TickNow(ctx context.Context) error
}

// Controller owns the OS signal subscription:
//
//	SIGINT, SIGTERM  cancel the root context (graceful shutdown)
//	SIGHUP           reload the configuration
//	SIGUSR1          run one fleet stats tick immediately
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc

	logger   *slog.Logger
	notifier Notifier

	reloadMgr  ReloadRunner
	tickRunner TickRunner

	mu    sync.Mutex
	sigCh chan os.Signal
	wg    sync.WaitGroup
}

type controllerIn struct {
	fx.In

	Ctx    context.Context
	Cancel context.CancelFunc

	Logger   *slog.Logger
	Notifier Notifier

	ReloadManager ReloadRunner `optional:"true"`
	TickRunner    TickRunner   `optional:"true"`
}

// NewController constructs a Controller.
func NewController(in controllerIn) *Controller {
	return &Controller{
		ctx:        in.Ctx,
		cancel:     in.Cancel,
		logger:     in.Logger,
		notifier:   in.Notifier,
		reloadMgr:  in.ReloadManager,
		tickRunner: in.TickRunner,
	}
}

// Start subscribes to the signals and starts the routing loop. Start is idempotent.
func (c *Controller) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sigCh != nil {
		return nil
	}

	sigCh := make(chan os.Signal, 8)
	c.sigCh = sigCh
	c.notifier.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		c.loop(sigCh)
	}()

	return nil
}

// Stop unsubscribes from the signals and waits for the routing loop to exit.
func (c *Controller) Stop(_ context.Context) error {
	c.mu.Lock()
	sigCh := c.sigCh
	c.sigCh = nil
	c.mu.Unlock()

	if sigCh != nil {
		c.notifier.Stop(sigCh)
		close(sigCh)
	}

	c.wg.Wait()

	return nil
}

func (c *Controller) loop(sigCh <-chan os.Signal) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				level.Info(c.logger).Log(definitions.LogKeyMsg, "Received termination signal", "signal", sig.String())
				c.cancel()

				return
			case syscall.SIGHUP:
				level.Info(c.logger).Log(definitions.LogKeyMsg, "Received reload signal", "signal", sig.String())

				if c.reloadMgr != nil {
					_ = c.reloadMgr.Reload(c.ctx)
				}
			case syscall.SIGUSR1:
				level.Info(c.logger).Log(definitions.LogKeyMsg, "Received manual tick signal", "signal", sig.String())

				if c.tickRunner != nil {
					_ = c.tickRunner.TickNow(c.ctx)
				}
			default:
				level.Debug(c.logger).Log(definitions.LogKeyMsg, "Received unhandled signal", "signal", sig.String())
			}
		}
	}
}
