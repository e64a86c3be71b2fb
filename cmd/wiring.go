package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fairwaylabs/clubtrack/internal/catalog"
	"github.com/fairwaylabs/clubtrack/internal/fetcher"
	"github.com/fairwaylabs/clubtrack/internal/source"
	"github.com/fairwaylabs/clubtrack/internal/store"
)

// pipelineEnv holds the store, source registry, and reconciler shared by
// the crawl, refresh, seed, and serve commands.
type pipelineEnv struct {
	Store      store.Store
	Sources    *source.Registry
	Reconciler *catalog.Reconciler
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates config, opens the store, runs migrations, and
// wires the fetcher, retailer adapters, and reconciler. Callers should
// defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	f := fetcher.New(fetcher.Options{
		RequestsPerWindow: cfg.Fetcher.RequestsPerWindow,
		Window:            time.Duration(cfg.Fetcher.WindowSecs) * time.Second,
		RequestDelay:      time.Duration(cfg.Fetcher.RequestDelaySecs) * time.Second,
		MaxAttempts:       cfg.Fetcher.MaxAttempts,
		Timeout:           time.Duration(cfg.Fetcher.TimeoutSecs) * time.Second,
	})

	reg := source.NewRegistry()
	reg.Register(source.NewGlobalGolf(f, cfg.Sources.GlobalGolf.BaseURL))

	rec := catalog.NewReconciler(st, catalog.Policy{
		CreateUnknownBrands: cfg.Catalog.CreateUnknownBrands,
		CreateUnknownTypes:  cfg.Catalog.CreateUnknownTypes,
	})

	return &pipelineEnv{Store: st, Sources: reg, Reconciler: rec}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "clubtrack.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
