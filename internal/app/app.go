package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"shakeout/server/internal/config"
	"shakeout/server/internal/game"
	"shakeout/server/internal/game/catalog"
	"shakeout/server/internal/journal"
	servernet "shakeout/server/internal/net"
	"shakeout/server/internal/net/ws"
	"shakeout/server/internal/sim"
	"shakeout/server/internal/telemetry"
	"shakeout/server/logging"
	loggingSinks "shakeout/server/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	Logger   telemetry.Logger
	Settings config.Config
}

// Run serves the lobby and drives the simulation loop until ctx is cancelled
// or either of them fails.
func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}
	settings := cfg.Settings

	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	logConfig := settings.LoggingConfig()
	recentLogs := loggingSinks.NewMemorySink(loggingSinks.DefaultMemoryCapacity)
	sinks := map[string]logging.Sink{
		"console": loggingSinks.NewConsoleSink(os.Stdout, logConfig.Console),
		"memory":  recentLogs,
	}
	var jsonFile io.Closer
	if logConfig.HasSink("json") {
		file, err := os.OpenFile(logConfig.JSON.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open json log: %w", err)
		}
		jsonFile = file
		sinks["json"] = loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval)
	}

	router, err := logging.NewRouter(logConfig, logging.SystemClock{}, fallbackLogger, sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
		if jsonFile != nil {
			jsonFile.Close()
		}
	}()

	counters := &logging.Metrics{}
	metrics := telemetry.WrapMetrics(counters)

	registry := catalog.Default()
	if _, err := registry.NewMode(settings.ModeConfig().Normalized()); err != nil {
		return fmt.Errorf("default mode %q: %w", settings.DefaultMode, err)
	}

	engine := game.NewEngine(settings.EngineConfig(), game.Deps{
		Registry:  registry,
		Scheduler: sim.WallScheduler{},
		Publisher: router,
		Logger:    telemetryLogger,
		Metrics:   metrics,
	})

	events := journal.New(journal.DefaultCapacity, metrics)
	defer events.Attach(engine.Events())()

	lobby := ws.NewLobby(engine, ws.LobbyConfig{
		Logger:        telemetryLogger,
		Publisher:     router,
		Metrics:       metrics,
		DefaultConfig: settings.ModeConfig(),
		Modes:         registry.ModeNames(),
		AllowAdmin:    settings.AllowAdmin,
	})

	loop := sim.NewLoop(engine, sim.LoopConfig{TickRate: settings.TickRate, CatchupMaxTicks: 5}, sim.Deps{
		Logger:  telemetryLogger,
		Metrics: metrics,
	}, sim.LoopHooks{})

	handler := servernet.NewHTTPHandler(lobby, engine, servernet.HTTPHandlerConfig{
		Logger:        telemetryLogger,
		Observability: settings.Observability(),
		TickInterval:  loop.Period(),
		Metrics:       counters,
		Router:        router,
		Journal:       events,
		Logs:          recentLogs,
	})
	srv := &http.Server{Addr: settings.Addr, Handler: handler}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return loop.Run(groupCtx)
	})
	group.Go(func() error {
		telemetryLogger.Printf("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		lobby.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = group.Wait()
	engine.StopGame()
	telemetryLogger.Printf("server stopped")
	return err
}
