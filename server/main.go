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
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/speedforceev/fleetstats/server/app/bootfx"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/svcctx"
	"go.uber.org/fx"
)

var (
	version   = "dev"
	buildTime = ""
)

func rootContextOption(ctx context.Context, cancel context.CancelFunc) fx.Option {
	return fx.Provide(
		func() context.Context {
			return ctx
		},
		func() context.CancelFunc {
			return cancel
		},
	)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run boots the service and blocks until the root context is cancelled. It returns the
// process exit status.
func run(args []string, stdout io.Writer) int {
	opts, exit, err := bootfx.ParseFlags(args, version, stdout)
	if err != nil {
		stdlog.Println("Unable to parse command line. Error:", err)

		return 1
	}

	if exit {
		return 0
	}

	boot, err := bootfx.SetupConfiguration(opts)
	if err != nil {
		stdlog.Println("Unable to setup the environment. Error:", err)

		return 1
	}

	ctx, cancel := svcctx.New(context.Background())
	defer cancel()

	var srv *httpServer

	fApp := newApp(boot, ctx, cancel, fx.Populate(&srv))

	if err := fApp.Start(context.Background()); err != nil {
		stdlog.Println("Unable to start fx app. Error:", err)

		return 1
	}

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout(boot))
	defer stopCancel()

	if err := fApp.Stop(stopCtx); err != nil {
		stdlog.Printf("Unable to stop fx app. Error: %v", err)
	}

	if srv != nil && srv.Err() != nil {
		return 1
	}

	return 0
}

// stopTimeout leaves room for the HTTP drain on top of the other stop hooks.
func stopTimeout(boot *bootfx.Boot) time.Duration {
	timeout := definitions.FxStopTimeout
	if boot != nil && boot.Config != nil && boot.Config.ShutdownTimeout+time.Second > timeout {
		timeout = boot.Config.ShutdownTimeout + time.Second
	}

	return timeout
}
