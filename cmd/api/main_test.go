package main

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/RENEILPH10/Step-Counter/internal/config"
	"github.com/RENEILPH10/Step-Counter/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func testConfig() config.Config {
	return config.Config{
		ServerPort:   ":0",
		StoreDriver:  config.DriverSQLite,
		TickInterval: 5 * time.Millisecond,
		StartLat:     7.0731,
		StartLon:     125.6131,
		HistoryLimit: 100,
		AutoStart:    true,
	}
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return store
}

type closeCounter struct {
	storage.Store
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return c.Store.Close()
}

func TestRunHandlesSignal(t *testing.T) {
	signals := make(chan os.Signal, 1)

	listenCalled := false
	listen := func(_ *fiber.App, _ string) error {
		listenCalled = true
		return nil
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		signals <- syscall.SIGINT
	}()

	if err := Run(context.Background(), testConfig(), newTestStore(t), nil, signals, listen); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if !listenCalled {
		t.Fatalf("expected listen to be called")
	}
}

func TestRunContextCancel(t *testing.T) {
	signals := make(chan os.Signal, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Run(ctx, testConfig(), newTestStore(t), nil, signals, func(_ *fiber.App, _ string) error { return nil }); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
}

func TestRunListenError(t *testing.T) {
	signals := make(chan os.Signal, 1)

	err := Run(context.Background(), testConfig(), newTestStore(t), nil, signals, func(_ *fiber.App, _ string) error {
		return errListen
	})
	if !errors.Is(err, errListen) {
		t.Fatalf("expected listen error, got %v", err)
	}
}

func TestRunInvalidStartCoordinate(t *testing.T) {
	cfg := testConfig()
	cfg.StartLat = 120

	store := &closeCounter{Store: newTestStore(t)}
	err := Run(context.Background(), cfg, store, nil, make(chan os.Signal, 1), nil)
	if err == nil {
		t.Fatalf("expected invalid coordinate error")
	}
	if store.closes != 1 {
		t.Fatalf("expected store to be closed")
	}
}

func TestRunDefaultListen(t *testing.T) {
	signals := make(chan os.Signal, 1)

	oldListen := defaultListen
	defaultListen = func(_ *fiber.App, _ string) error { return nil }
	defer func() { defaultListen = oldListen }()

	go func() {
		signals <- syscall.SIGINT
	}()

	if err := Run(context.Background(), testConfig(), newTestStore(t), nil, signals, nil); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
}

func TestRunSamplesWhileServing(t *testing.T) {
	signals := make(chan os.Signal, 1)
	store := &closeCounter{Store: newTestStore(t)}

	listen := func(app *fiber.App, _ string) error {
		// let the sampler tick a few times before shutting down
		time.Sleep(50 * time.Millisecond)
		signals <- syscall.SIGTERM
		return nil
	}

	if err := Run(context.Background(), testConfig(), store, nil, signals, listen); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if store.closes != 1 {
		t.Fatalf("expected store closed once, got %d", store.closes)
	}
}

func TestRunClosesResources(t *testing.T) {
	signals := make(chan os.Signal, 1)

	redisServer := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: redisServer.Addr()})
	store := &closeCounter{Store: newTestStore(t)}

	listen := func(_ *fiber.App, _ string) error {
		signals <- syscall.SIGINT
		return nil
	}

	if err := Run(context.Background(), testConfig(), store, client, signals, listen); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if store.closes != 1 {
		t.Fatalf("expected store closed")
	}
	if err := client.Ping(context.Background()).Err(); !errors.Is(err, redis.ErrClosed) {
		t.Fatalf("expected redis client closed, got %v", err)
	}
}

func TestRunShutdownError(t *testing.T) {
	signals := make(chan os.Signal, 1)

	oldShutdown := shutdownFn
	shutdownFn = func(_ *fiber.App, _ context.Context) error { return errListen }
	defer func() { shutdownFn = oldShutdown }()

	go func() {
		signals <- syscall.SIGINT
	}()

	if err := Run(context.Background(), testConfig(), newTestStore(t), nil, signals, func(_ *fiber.App, _ string) error { return nil }); err == nil {
		t.Fatalf("expected shutdown error")
	}
}

var errListen = errors.New("listen failed")

func TestRealMainHandlesErrors(t *testing.T) {
	calledNotify := false
	calledRun := false
	deps := mainDeps{
		loadConfig:   func() config.Config { return testConfig() },
		openStore:    func(context.Context, config.Config) (storage.Store, error) { return newTestStore(t), nil },
		connectRedis: func(config.Config) *redis.Client { return nil },
		notify: func(ch chan<- os.Signal, _ ...os.Signal) {
			calledNotify = true
			close(ch)
		},
		run: func(_ context.Context, _ config.Config, store storage.Store, _ *redis.Client, _ <-chan os.Signal, _ ListenFunc) error {
			calledRun = true
			_ = store.Close()
			return errListen
		},
	}

	realMain(deps)
	if !calledNotify {
		t.Fatalf("expected notify to be called")
	}
	if !calledRun {
		t.Fatalf("expected run to be called")
	}
}

func TestRealMainStoreFailure(t *testing.T) {
	calledRun := false
	deps := mainDeps{
		loadConfig: func() config.Config { return testConfig() },
		openStore: func(context.Context, config.Config) (storage.Store, error) {
			return nil, &storage.StorageError{Op: "open", Err: errListen}
		},
		run: func(context.Context, config.Config, storage.Store, *redis.Client, <-chan os.Signal, ListenFunc) error {
			calledRun = true
			return nil
		},
	}

	realMain(deps)
	if calledRun {
		t.Fatalf("run must not start without a store")
	}
}

func TestDefaultDeps(t *testing.T) {
	deps := defaultDeps()
	if deps.loadConfig == nil || deps.openStore == nil || deps.connectRedis == nil || deps.notify == nil || deps.run == nil {
		t.Fatalf("expected default deps to be set")
	}
}

func TestMainUsesOverrides(t *testing.T) {
	oldProvider := mainDepsProvider
	oldRunner := mainRunner
	defer func() {
		mainDepsProvider = oldProvider
		mainRunner = oldRunner
	}()

	called := false
	mainDepsProvider = func() mainDeps { return mainDeps{} }
	mainRunner = func(mainDeps) { called = true }

	main()
	if !called {
		t.Fatalf("expected main runner to be called")
	}
}
