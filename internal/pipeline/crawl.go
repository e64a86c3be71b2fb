// Package pipeline runs the acquisition workflows: full category crawls,
// staleness-driven refreshes, and historical seeding. Every workflow opens
// one scrape_runs row at start and finalizes it exactly once.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairwaylabs/clubtrack/internal/catalog"
	"github.com/fairwaylabs/clubtrack/internal/model"
	"github.com/fairwaylabs/clubtrack/internal/source"
	"github.com/fairwaylabs/clubtrack/internal/store"
)

// CrawlOptions narrows a crawl run. Category and Brand are optional; an
// empty Category crawls everything the source knows.
type CrawlOptions struct {
	Source   string
	Category string
	Brand    string
}

// Crawler walks retailer category listings page by page and reconciles
// every extracted item into the catalog.
type Crawler struct {
	st       store.Store
	sources  *source.Registry
	rec      *catalog.Reconciler
	maxPages int
}

// NewCrawler builds a crawler. maxPages bounds pagination per category.
func NewCrawler(st store.Store, sources *source.Registry, rec *catalog.Reconciler, maxPages int) *Crawler {
	if maxPages <= 0 {
		maxPages = 10
	}
	return &Crawler{st: st, sources: sources, rec: rec, maxPages: maxPages}
}

// Run executes one crawl against a single source and returns its summary.
// Item-level failures are counted, not fatal; the run fails outright only
// when it is canceled or produced zero listings alongside fetch errors.
func (c *Crawler) Run(ctx context.Context, opts CrawlOptions) (*model.RunSummary, error) {
	src, err := c.sources.Get(opts.Source)
	if err != nil {
		return nil, err
	}

	categories := src.Categories()
	scrapeType := model.ScrapeTypeFull
	if opts.Category != "" {
		if !slices.Contains(categories, opts.Category) {
			return nil, eris.Errorf("pipeline: source %s has no category %q", src.Name(), opts.Category)
		}
		categories = []string{opts.Category}
		scrapeType = model.FilteredScrapeType(opts.Category)
	}

	runID, err := c.st.StartRun(ctx, src.Name(), scrapeType)
	if err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("run_id", runID), zap.String("source", src.Name()))
	log.Info("crawl: starting",
		zap.String("scrape_type", scrapeType),
		zap.Strings("categories", categories),
		zap.String("brand", opts.Brand),
	)

	summary := &model.RunSummary{RunID: runID}
	listed := 0

	for _, category := range categories {
		n, err := c.crawlCategory(ctx, src, category, opts.Brand, summary, log)
		listed += n
		if err != nil {
			finalizeFailed(c.st, runID, err, log)
			return nil, err
		}
	}

	if listed == 0 && summary.Errors > 0 {
		// Nothing extracted and at least one fetch error: the source is
		// effectively unreachable, no partial counts to report.
		msg := fmt.Sprintf("no listings extracted (%d errors)", summary.Errors)
		if err := c.st.FailRun(ctx, runID, msg); err != nil {
			return nil, err
		}
		log.Warn("crawl: run failed", zap.String("reason", msg))
		return summary, nil
	}

	status := model.RunStatusSuccess
	var errMsg string
	if summary.Errors > 0 {
		status = model.RunStatusPartial
		errMsg = fmt.Sprintf("%d errors", summary.Errors)
	}
	if err := c.st.CompleteRun(ctx, runID, status, summary.RecordsAdded, summary.RecordsUpdated, errMsg); err != nil {
		return nil, err
	}

	log.Info("crawl: finished",
		zap.String("status", string(status)),
		zap.Int("listed", listed),
		zap.Int("added", summary.RecordsAdded),
		zap.Int("updated", summary.RecordsUpdated),
		zap.Int("errors", summary.Errors),
	)
	return summary, nil
}

// crawlCategory pages through one category until an empty page, the page
// ceiling, or a failed listing fetch. It returns how many listings it saw.
// Only cancellation is returned as an error; fetch failures end the
// category's pagination (page numbers past a failure cannot be trusted)
// and are counted on the summary.
func (c *Crawler) crawlCategory(ctx context.Context, src source.Source, category, brand string, summary *model.RunSummary, log *zap.Logger) (int, error) {
	listed := 0
	for page := 1; page <= c.maxPages; page++ {
		if ctx.Err() != nil {
			return listed, eris.Wrap(ctx.Err(), "pipeline: crawl canceled")
		}

		listings, err := src.ListCategory(ctx, source.Query{Category: category, Page: page, Brand: brand})
		if err != nil {
			if ctx.Err() != nil {
				return listed, eris.Wrap(ctx.Err(), "pipeline: crawl canceled")
			}
			summary.Errors++
			log.Warn("crawl: category page failed",
				zap.String("category", category),
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}
		if len(listings) == 0 {
			break
		}

		listed += len(listings)
		for _, listing := range listings {
			outcome, recErr := c.rec.Reconcile(ctx, listing)
			switch outcome {
			case catalog.OutcomeCreated:
				summary.RecordsAdded++
			case catalog.OutcomeUpdated:
				summary.RecordsUpdated++
			}
			if recErr != nil {
				summary.Errors++
				log.Warn("crawl: reconcile failed",
					zap.String("brand", listing.BrandText),
					zap.String("model", listing.ModelText),
					zap.Error(recErr),
				)
			}
		}
	}
	return listed, nil
}

// finalizeFailed writes the failed status on its own short-lived context,
// since the triggering context is usually already canceled.
func finalizeFailed(st store.Store, runID string, cause error, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.FailRun(ctx, runID, cause.Error()); err != nil {
		log.Warn("run: failed to finalize", zap.String("run_id", runID), zap.Error(err))
	}
}
