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
	stdlog "log"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/speedforceev/fleetstats/server/app/bootfx"
	"github.com/speedforceev/fleetstats/server/app/configfx"
	"github.com/speedforceev/fleetstats/server/app/logfx"
	"github.com/speedforceev/fleetstats/server/app/loopsfx"
	"github.com/speedforceev/fleetstats/server/app/reloadfx"
	"github.com/speedforceev/fleetstats/server/app/signalsfx"
	"github.com/speedforceev/fleetstats/server/config"
	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/fleet"
	handlerfleet "github.com/speedforceev/fleetstats/server/handler/fleet"
	handlerhealth "github.com/speedforceev/fleetstats/server/handler/health"
	handlermetrics "github.com/speedforceev/fleetstats/server/handler/metrics"
	"github.com/speedforceev/fleetstats/server/log/level"
	"github.com/speedforceev/fleetstats/server/monitoring"
	"github.com/speedforceev/fleetstats/server/router"
	"github.com/speedforceev/fleetstats/server/stats"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// newApp assembles the fx application. extra options are appended last (tests, fx.Populate).
func newApp(boot *bootfx.Boot, ctx context.Context, cancel context.CancelFunc, extra ...fx.Option) *fx.App {
	opts := []fx.Option{
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return logfx.NewFxEventLogger(logger)
		}),
		fx.StopTimeout(stopTimeout(boot)),
		rootContextOption(ctx, cancel),
		fx.Supply(boot),
		fx.Provide(
			newConfigDeps,
			currentConfig,
			newFleetStore,
			loopsfx.NewDefaultTickService,
			newProcessStatsService,
			fx.Annotate(
				loopsfx.NewMemoryLimitReloader,
				fx.As(new(reloadfx.Reloadable)),
				fx.ResultTags(`group:"reloadables"`),
			),
			newTelemetry,
			newEngine,
			newServer,
		),
		logfx.Module,
		reloadfx.Module(),
		fx.Invoke(registerTelemetryLifecycle),
		fx.Invoke(registerRuntimeLifecycle),
		signalsfx.Module(),
	}

	return fx.New(append(opts, extra...)...)
}

type configDeps struct {
	fx.Out

	Provider configfx.Provider
	Reloader configfx.Reloader
}

func newConfigDeps(boot *bootfx.Boot) (configDeps, error) {
	r, err := configfx.NewFileProvider(boot.Config, boot.LoadOptions)
	if err != nil {
		return configDeps{}, err
	}

	return configDeps{Provider: r, Reloader: r}, nil
}

// currentConfig returns the snapshot taken at startup. Only reloadables observe later snapshots.
func currentConfig(p configfx.Provider) *config.Config {
	return p.Current().Config
}

func newFleetStore(logger *slog.Logger) (*fleet.Store, error) {
	store, err := fleet.NewStore(
		fleet.DefaultCollection(),
		fleet.WithLogger(logger),
		fleet.WithObserver(stats.FleetObserver),
	)
	if err != nil {
		return nil, err
	}

	stats.ObserveFleet(store.Snapshot())

	return store, nil
}

func newProcessStatsService(cfg *config.Config, logger *slog.Logger) *loopsfx.ProcessStatsService {
	return loopsfx.NewProcessStatsService(cfg.ProcessStatsInterval, cfg.MemoryLimitBytes(), logger)
}

func newTelemetry(cfg *config.Config, logger *slog.Logger) *monitoring.Telemetry {
	return monitoring.NewTelemetry(monitoring.ConfigProvider{Cfg: cfg}, logger)
}

func newEngine(cfg *config.Config, logger *slog.Logger, store *fleet.Store) *gin.Engine {
	router.SetupGinLoggers(logger, cfg.LogLevelValue())

	env := cfg.Env()

	return router.NewRouter(cfg, logger).Default(
		monitoring.ResolveServiceName(cfg.Tracing.ServiceName, cfg.ServiceName, cfg.InstanceName),
		handlerfleet.New(store, env, logger, nil),
		handlerhealth.New(cfg.ServiceName, env, logger, nil),
		handlermetrics.New(nil),
	)
}

func newServer(cfg *config.Config, engine *gin.Engine, logger *slog.Logger, cancel context.CancelFunc) *httpServer {
	return newHTTPServer(cfg.Address(), engine, cfg, logger, func(error) { cancel() })
}

type telemetryParams struct {
	fx.In

	Ctx       context.Context
	Telemetry *monitoring.Telemetry
}

// registerTelemetryLifecycle runs first on start and last on stop so that every span of the
// runtime is exported.
func registerTelemetryLifecycle(lc fx.Lifecycle, p telemetryParams) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Telemetry.Start(p.Ctx, version)

			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			p.Telemetry.Shutdown(stopCtx)

			return nil
		},
	})
}

type runtimeLifecycleParams struct {
	fx.In

	Ctx      context.Context
	Cancel   context.CancelFunc
	Config   *config.Config
	Logger   *slog.Logger
	Store    *fleet.Store
	Server   *httpServer
	TickSvc  *loopsfx.TickService
	StatsSvc *loopsfx.ProcessStatsService
}

func registerRuntimeLifecycle(lc fx.Lifecycle, p runtimeLifecycleParams) {
	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			level.Info(p.Logger).Log(
				definitions.LogKeyMsg, "Starting fleet stats server",
				definitions.LogKeyVersion, version,
				"build_time", buildTime,
			)

			// The first served snapshot must already carry the initialization pass.
			if _, err := p.Store.InitializeOnce(); err != nil {
				level.Error(p.Logger).Log(definitions.LogKeyMsg, "Unable to initialize fleet stats", definitions.LogKeyError, err)
			}

			if err := p.Server.Start(startCtx); err != nil {
				level.Error(p.Logger).Log(definitions.LogKeyMsg, "Unable to start HTTP server", definitions.LogKeyError, err)

				return err
			}

			logStartup(p.Logger, p.Config, p.Server.Addr(), p.Store)

			if err := p.TickSvc.Start(p.Ctx); err != nil {
				return err
			}

			return p.StatsSvc.Start(p.Ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			p.Cancel()

			if err := p.TickSvc.Stop(stopCtx); err != nil {
				stdlog.Printf("Unable to stop fleet stats scheduler. Error: %v", err)
			}

			if err := p.StatsSvc.Stop(stopCtx); err != nil {
				stdlog.Printf("Unable to stop process stats service. Error: %v", err)
			}

			return p.Server.Stop(stopCtx)
		},
	})
}
