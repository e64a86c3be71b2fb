package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fairwaylabs/clubtrack/internal/catalog"
	"github.com/fairwaylabs/clubtrack/internal/model"
	"github.com/fairwaylabs/clubtrack/internal/source"
	"github.com/fairwaylabs/clubtrack/internal/store"
)

// RefreshOptions bounds one refresh run.
type RefreshOptions struct {
	Source   string
	MaxBatch int
}

// Refresher re-fetches provenance rows that have not been checked within
// the refresh interval and folds price movements back into the catalog.
// Refresh runs never create catalog rows.
type Refresher struct {
	st          store.Store
	sources     *source.Registry
	rec         *catalog.Reconciler
	interval    time.Duration
	concurrency int
}

// NewRefresher builds a refresher. Concurrency above 1 fans detail fetches
// out across goroutines; they still share the fetcher's request budget.
func NewRefresher(st store.Store, sources *source.Registry, rec *catalog.Reconciler, interval time.Duration, concurrency int) *Refresher {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Refresher{st: st, sources: sources, rec: rec, interval: interval, concurrency: concurrency}
}

// Run refreshes one batch of stale rows for a single source. A row is
// touched only when its re-fetch succeeds; failed and vanished rows keep
// their last_checked and stay eligible for the next cycle.
func (r *Refresher) Run(ctx context.Context, opts RefreshOptions) (*model.RunSummary, error) {
	src, err := r.sources.Get(opts.Source)
	if err != nil {
		return nil, err
	}

	runID, err := r.st.StartRun(ctx, src.Name(), model.ScrapeTypeRefresh)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("run_id", runID), zap.String("source", src.Name()))

	cutoff := time.Now().UTC().Add(-r.interval)
	stale, err := r.st.ListStaleProductSources(ctx, src.Name(), cutoff, opts.MaxBatch)
	if err != nil {
		finalizeFailed(r.st, runID, err, log)
		return nil, err
	}
	log.Info("refresh: starting", zap.Int("stale", len(stale)), zap.Time("cutoff", cutoff))

	var refreshed, priceChanges, failures atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, ps := range stale {
		g.Go(func() error {
			listing, err := src.FetchDetail(gctx, ps.ProductURL)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failures.Add(1)
				log.Warn("refresh: detail fetch failed",
					zap.Int64("club_id", ps.ClubID),
					zap.String("url", ps.ProductURL),
					zap.Error(err),
				)
				return nil
			}
			if listing == nil {
				failures.Add(1)
				log.Warn("refresh: product gone, row left for review",
					zap.Int64("club_id", ps.ClubID),
					zap.String("url", ps.ProductURL),
				)
				return nil
			}

			changed, err := r.rec.ApplyRefresh(gctx, ps, *listing)
			if err != nil {
				failures.Add(1)
				log.Warn("refresh: apply failed",
					zap.Int64("club_id", ps.ClubID),
					zap.Error(err),
				)
				return nil
			}
			refreshed.Add(1)
			if changed {
				priceChanges.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		finalizeFailed(r.st, runID, err, log)
		return nil, eris.Wrap(err, "pipeline: refresh canceled")
	}

	summary := &model.RunSummary{
		RunID:          runID,
		RecordsUpdated: int(refreshed.Load()),
		Errors:         int(failures.Load()),
	}

	status := model.RunStatusSuccess
	var errMsg string
	if summary.Errors > 0 {
		status = model.RunStatusPartial
		errMsg = fmt.Sprintf("%d errors", summary.Errors)
	}
	if err := r.st.CompleteRun(ctx, runID, status, 0, summary.RecordsUpdated, errMsg); err != nil {
		return nil, err
	}

	log.Info("refresh: finished",
		zap.String("status", string(status)),
		zap.Int("refreshed", summary.RecordsUpdated),
		zap.Int32("price_changes", priceChanges.Load()),
		zap.Int("errors", summary.Errors),
	)
	return summary, nil
}
