package main

import (
	"context"
	"fmt"
	"io"
	stdsync "sync"

	"github.com/mschirtzinger/planner/internal/cache"
	"github.com/mschirtzinger/planner/internal/config"
	"github.com/mschirtzinger/planner/internal/connectivity"
	"github.com/mschirtzinger/planner/internal/logging"
	"github.com/mschirtzinger/planner/internal/remote"
	"github.com/mschirtzinger/planner/internal/sync"
)

// session is one engine run against the configured cache and remote.
type session struct {
	engine  *sync.Engine
	monitor *connectivity.Monitor
	adapter *cache.Adapter
	closer  io.Closer

	cfg       *config.Config
	closeOnce stdsync.Once
}

// openSession opens the cache, samples the status file and starts an engine.
// A cache that cannot be opened leaves the session running without one.
func openSession(ctx context.Context, cfg *config.Config, logs *logging.Factory) (*session, error) {
	store, closer := openStore(cfg, logs)

	initial, err := connectivity.ReadStatusFile(cfg.Connectivity.StatusFile)
	if err != nil {
		logs.Logger("connectivity").Printf("Warning: %v; assuming online", err)
		initial = connectivity.Online
	}
	monitor := connectivity.NewMonitor(initial)

	adapter := cache.New(store, logs.Logger("cache"))
	client := remote.NewHTTPClient(cfg.Remote.URL, cfg.Remote.Timeout)

	engine, err := sync.New(adapter, client, monitor, &sync.Config{
		RequestTimeout: cfg.Remote.Timeout,
		Logger:         logs.Logger("sync"),
	})
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to create sync engine: %w", err)
	}
	if err := engine.Start(ctx); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to start sync engine: %w", err)
	}

	return &session{
		engine:  engine,
		monitor: monitor,
		adapter: adapter,
		closer:  closer,
		cfg:     cfg,
	}, nil
}

func openStore(cfg *config.Config, logs *logging.Factory) (cache.Store, io.Closer) {
	if cfg.Cache.Memory {
		return cache.NewMemoryStore(), nopCloser{}
	}
	store, err := cache.OpenSQLite(cfg.Cache.Path)
	if err != nil {
		logs.Logger("cache").Printf("Warning: %v; running without a local cache", err)
		unavailable := cache.NewMemoryStore()
		unavailable.SetDenyWrites(true)
		return unavailable, nopCloser{}
	}
	return store, store
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// close ends the session, gives teardown remote calls up to the configured
// drain timeout and releases the cache.
func (s *session) close() {
	s.closeOnce.Do(func() {
		_ = s.engine.Close()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Sync.DrainTimeout)
		defer cancel()
		_ = s.engine.Drain(ctx)

		_ = s.closer.Close()
	})
}
