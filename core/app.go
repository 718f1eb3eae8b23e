// Package core wires the services together for the server and the CLI.
package core

import (
	"context"
	"sync"

	"transfer-status-backend/config"
	"transfer-status-backend/internal/api"
	"transfer-status-backend/internal/cache"
	"transfer-status-backend/internal/normalize"
	"transfer-status-backend/internal/poller"
	"transfer-status-backend/internal/resolver"
	"transfer-status-backend/internal/server"
	"transfer-status-backend/internal/stats"
	"transfer-status-backend/internal/utils"
	"transfer-status-backend/internal/ws"
)

// App owns every long-lived component.
type App struct {
	Config       config.Config
	Client       *api.Client
	Store        cache.Store
	LastTransfer *cache.LastTransfer
	Normalizer   *normalize.Normalizer
	Resolver     *resolver.Resolver
	Stats        *stats.Collector
	Hub          *ws.Hub
	Server       *server.Server

	wg sync.WaitGroup
}

// NewApp builds the components described by cfg.
func NewApp(cfg config.Config) *App {
	utils.InitializeComponentLoggers(utils.ParseLogLevel(cfg.Log.Level))
	utils.SetJSONFormat(cfg.Log.Format == "json")
	utils.SetIncludeStackTrace(cfg.Log.StackTraces)

	a := &App{
		Config:     cfg,
		Client:     api.New(cfg.API),
		Store:      cache.NewStore(cfg.Cache),
		Normalizer: normalize.New(),
		Stats:      stats.NewCollector(cfg.Stats),
	}

	a.LastTransfer = cache.NewLastTransfer(a.Store, cfg.Cache.TTL)
	a.LastTransfer.OnError = a.Stats.CacheError

	a.Resolver = resolver.New(a.Client, a.LastTransfer, cfg.Resolver,
		resolver.WithNormalizer(a.Normalizer),
		resolver.WithObserver(a.Stats))

	a.Hub = ws.NewHub(a.Resolver, a.NewController, a.Stats)

	a.Server = server.NewServer(cfg.Server, server.Deps{
		Resolver:     a.Resolver,
		LastTransfer: a.LastTransfer,
		Normalizer:   a.Normalizer,
		Hub:          a.Hub,
		Stats:        a.Stats,
		API:          a.Client,
	})
	return a
}

// NewController creates a polling controller sharing the app's client and stats.
func (a *App) NewController() *poller.Controller {
	return poller.New(a.Client, a.Config.Poller,
		poller.WithNormalizer(a.Normalizer),
		poller.WithObserver(a.Stats))
}

// Start runs the background workers and the HTTP server until ctx is done.
func (a *App) Start(ctx context.Context) error {
	utils.LogInfo("CORE", "Starting transfer status backend (api: %s, cache: %s)", a.Config.API.BaseURL, a.Config.Cache.Backend)

	if mem, ok := a.Store.(*cache.Memory); ok {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			mem.RunSweeper(ctx, a.Config.Cache.SweepEvery)
		}()
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.Stats.RunCleanup(ctx)
	}()

	return a.Server.Start(ctx)
}

// Stop waits for background workers and releases connections.
func (a *App) Stop() {
	a.wg.Wait()
	a.Client.Close()
	if r, ok := a.Store.(*cache.Redis); ok {
		if err := r.Close(); err != nil {
			utils.LogWarn("CORE", "closing redis: %v", err)
		}
	}
}
