package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/RENEILPH10/Step-Counter/internal/config"
	"github.com/RENEILPH10/Step-Counter/internal/db"
	"github.com/RENEILPH10/Step-Counter/internal/position"
	"github.com/RENEILPH10/Step-Counter/internal/sampler"
	"github.com/RENEILPH10/Step-Counter/internal/server"
	"github.com/RENEILPH10/Step-Counter/internal/shared/geo"
	"github.com/RENEILPH10/Step-Counter/internal/shared/logx"
	"github.com/RENEILPH10/Step-Counter/internal/storage"
	"github.com/RENEILPH10/Step-Counter/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig   func() config.Config
	openStore    func(context.Context, config.Config) (storage.Store, error)
	connectRedis func(config.Config) *redis.Client
	notify       func(chan<- os.Signal, ...os.Signal)
	run          func(context.Context, config.Config, storage.Store, *redis.Client, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:   config.Load,
		openStore:    storage.Open,
		connectRedis: db.ConnectRedis,
		notify:       signal.Notify,
		run:          Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()
	log := logx.New("stepmeter", cfg.LogLevel)

	store, err := deps.openStore(context.Background(), cfg)
	if err != nil {
		log.Error("open record store failed", "action", "startup", "driver", cfg.StoreDriver, "error", err)
		return
	}

	rdb := deps.connectRedis(cfg)

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, store, rdb, signals, nil); err != nil {
		log.Error("server exited with error", "action", "shutdown", "error", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run serves the API and drives the sampler until a signal arrives or ctx ends.
// It owns store and rdb and closes both before returning.
func Run(ctx context.Context, cfg config.Config, store storage.Store, rdb *redis.Client, signals <-chan os.Signal, listen ListenFunc) error {
	log := slog.Default()
	defer closeResources(store, rdb)

	start, err := geo.NewCoordinate(cfg.StartLat, cfg.StartLon)
	if err != nil {
		return fmt.Errorf("start coordinate: %w", err)
	}
	source, err := position.NewSimulator(start, nil)
	if err != nil {
		return err
	}

	tracker := tracking.NewTracker()
	srv := server.NewServer(cfg, store, rdb, tracker, log)
	defer srv.Stream.Close()

	loop := sampler.New(tracker, source, cfg.TickInterval,
		sampler.WithLogger(log),
		sampler.WithOnTick(srv.Tracking.Publish),
	)
	if cfg.AutoStart {
		srv.Tracking.Start()
	}

	loopCtx, stopLoop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = loop.Run(loopCtx)
	}()
	defer func() {
		stopLoop()
		wg.Wait()
	}()

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()
	log.Info("listening", "action", "startup", "addr", cfg.ServerPort, "store", cfg.StoreDriver)

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return shutdownFn(srv.App, shutdownCtx)
}

func closeResources(store storage.Store, rdb *redis.Client) {
	var errs []error
	if store != nil {
		errs = append(errs, store.Close())
	}
	if rdb != nil {
		errs = append(errs, rdb.Close())
	}
	if err := errors.Join(errs...); err != nil {
		slog.Default().Warn("closing resources", "action", "shutdown", "error", err)
	}
}
