package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairwaylabs/clubtrack/internal/model"
	"github.com/fairwaylabs/clubtrack/internal/source"
	"github.com/fairwaylabs/clubtrack/internal/store"
)

func TestCrawler_FirstRunAddsSecondRunIdempotent(t *testing.T) {
	st := newTestStore(t)
	src := newFakeSource("drivers")
	src.setPage("drivers", 1,
		driverListing("TaylorMade", "Stealth 2", pricePtr(599.99), "/stealth-2"),
		driverListing("Callaway", "Paradym", pricePtr(549.99), "/paradym"),
	)

	crawler := NewCrawler(st, newTestRegistry(src), newTestReconciler(st), 10)

	summary, err := crawler.Run(context.Background(), CrawlOptions{Source: "fake"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RecordsAdded)
	assert.Equal(t, 0, summary.RecordsUpdated)
	assert.Equal(t, 0, summary.Errors)

	run, err := st.GetRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, model.RunStatusSuccess, run.Status)
	assert.Equal(t, model.ScrapeTypeFull, run.ScrapeType)
	assert.Equal(t, 2, run.RecordsAdded)

	// Identical source data: nothing added, nothing updated.
	summary, err = crawler.Run(context.Background(), CrawlOptions{Source: "fake"})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.RecordsAdded)
	assert.Equal(t, 0, summary.RecordsUpdated)
	assert.Equal(t, 0, summary.Errors)

	clubs, err := st.ListClubs(context.Background(), store.ClubFilter{})
	require.NoError(t, err)
	assert.Len(t, clubs, 2)
}

func TestCrawler_PriceChangeCountsUpdated(t *testing.T) {
	st := newTestStore(t)
	src := newFakeSource("drivers")
	src.setPage("drivers", 1, driverListing("TaylorMade", "Stealth 2", pricePtr(599.99), "/stealth-2"))

	crawler := NewCrawler(st, newTestRegistry(src), newTestReconciler(st), 10)

	_, err := crawler.Run(context.Background(), CrawlOptions{Source: "fake"})
	require.NoError(t, err)

	src.setPage("drivers", 1, driverListing("TaylorMade", "Stealth 2", pricePtr(549.99), "/stealth-2"))

	summary, err := crawler.Run(context.Background(), CrawlOptions{Source: "fake"})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.RecordsAdded)
	assert.Equal(t, 1, summary.RecordsUpdated)
}

func TestCrawler_PageErrorMakesRunPartial(t *testing.T) {
	st := newTestStore(t)
	src := newFakeSource("drivers", "putters")
	src.setPageErr("drivers", 1, errors.New("http 500"))
	src.setPage("putters", 1, model.RawListing{
		Source:    "fake",
		BrandText: "Ping",
		ModelText: "Anser",
		ClubType:  "putters",
		Price:     pricePtr(299.99),
		DetailURL: "/anser",
		InStock:   true,
	})

	crawler := NewCrawler(st, newTestRegistry(src), newTestReconciler(st), 10)

	summary, err := crawler.Run(context.Background(), CrawlOptions{Source: "fake"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RecordsAdded)
	assert.Equal(t, 1, summary.Errors)

	run, err := st.GetRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusPartial, run.Status)
	assert.Equal(t, "1 errors", run.ErrorMessage)
}

func TestCrawler_NothingExtractedWithErrorsFails(t *testing.T) {
	st := newTestStore(t)
	src := newFakeSource("drivers")
	src.setPageErr("drivers", 1, errors.New("connection refused"))

	crawler := NewCrawler(st, newTestRegistry(src), newTestReconciler(st), 10)

	summary, err := crawler.Run(context.Background(), CrawlOptions{Source: "fake"})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.RecordsAdded)
	assert.Equal(t, 1, summary.Errors)

	run, err := st.GetRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Contains(t, run.ErrorMessage, "no listings extracted")
}

func TestCrawler_EmptySourceSucceeds(t *testing.T) {
	st := newTestStore(t)
	src := newFakeSource("drivers")

	crawler := NewCrawler(st, newTestRegistry(src), newTestReconciler(st), 10)

	summary, err := crawler.Run(context.Background(), CrawlOptions{Source: "fake"})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.RecordsAdded)
	assert.Equal(t, 0, summary.Errors)

	run, err := st.GetRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSuccess, run.Status)
}

func TestCrawler_UnknownSourceAndCategory(t *testing.T) {
	st := newTestStore(t)
	src := newFakeSource("drivers")
	crawler := NewCrawler(st, newTestRegistry(src), newTestReconciler(st), 10)

	_, err := crawler.Run(context.Background(), CrawlOptions{Source: "nosuch"})
	require.Error(t, err)

	_, err = crawler.Run(context.Background(), CrawlOptions{Source: "fake", Category: "woods"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no category "woods"`)

	// Neither failure opened a run.
	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestCrawler_CategoryFilterLabelsRun(t *testing.T) {
	st := newTestStore(t)
	src := newFakeSource("drivers", "putters")
	src.setPage("drivers", 1, driverListing("TaylorMade", "Qi10", pricePtr(599.99), "/qi10"))

	crawler := NewCrawler(st, newTestRegistry(src), newTestReconciler(st), 10)

	summary, err := crawler.Run(context.Background(), CrawlOptions{Source: "fake", Category: "drivers"})
	require.NoError(t, err)

	run, err := st.GetRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, "filtered_drivers", run.ScrapeType)

	// Only the requested category was queried.
	for _, q := range src.listCalls() {
		assert.Equal(t, "drivers", q.Category)
	}
}

func TestCrawler_BrandFilterForwarded(t *testing.T) {
	st := newTestStore(t)
	src := newFakeSource("drivers")
	src.setPage("drivers", 1, driverListing("Titleist", "TSR3", pricePtr(599.99), "/tsr3"))

	crawler := NewCrawler(st, newTestRegistry(src), newTestReconciler(st), 10)

	_, err := crawler.Run(context.Background(), CrawlOptions{Source: "fake", Brand: "Titleist"})
	require.NoError(t, err)

	calls := src.listCalls()
	require.NotEmpty(t, calls)
	for _, q := range calls {
		assert.Equal(t, "Titleist", q.Brand)
	}
}

func TestCrawler_PaginatesUntilEmptyPage(t *testing.T) {
	st := newTestStore(t)
	src := newFakeSource("drivers")
	src.setPage("drivers", 1, driverListing("TaylorMade", "Stealth 2", pricePtr(599.99), "/stealth-2"))
	src.setPage("drivers", 2, driverListing("TaylorMade", "Qi10", pricePtr(649.99), "/qi10"))
	// Page 3 missing: past the end.

	crawler := NewCrawler(st, newTestRegistry(src), newTestReconciler(st), 10)

	summary, err := crawler.Run(context.Background(), CrawlOptions{Source: "fake"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RecordsAdded)

	calls := src.listCalls()
	require.Len(t, calls, 3)
	assert.Equal(t, 1, calls[0].Page)
	assert.Equal(t, 2, calls[1].Page)
	assert.Equal(t, 3, calls[2].Page)
}

func TestCrawler_PageCeilingStopsEndlessListings(t *testing.T) {
	st := newTestStore(t)
	src := newFakeSource("drivers")
	src.endless = true

	crawler := NewCrawler(st, newTestRegistry(src), newTestReconciler(st), 3)

	summary, err := crawler.Run(context.Background(), CrawlOptions{Source: "fake"})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.RecordsAdded)
	assert.Len(t, src.listCalls(), 3)
}

func TestCrawler_CancellationFailsRun(t *testing.T) {
	st := newTestStore(t)
	src := newFakeSource("drivers")
	src.setPage("drivers", 1, driverListing("TaylorMade", "Stealth 2", pricePtr(599.99), "/stealth-2"))
	src.setPage("drivers", 2, driverListing("Callaway", "Paradym", pricePtr(549.99), "/paradym"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src.onList = func(q source.Query) {
		if q.Page == 2 {
			cancel()
		}
	}

	crawler := NewCrawler(st, newTestRegistry(src), newTestReconciler(st), 10)

	_, err := crawler.Run(ctx, CrawlOptions{Source: "fake"})
	require.Error(t, err)

	// The run row was still finalized as failed.
	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].ErrorMessage, "canceled")
}
