package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairwaylabs/clubtrack/internal/catalog"
	"github.com/fairwaylabs/clubtrack/internal/model"
	"github.com/fairwaylabs/clubtrack/internal/source"
	"github.com/fairwaylabs/clubtrack/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func pricePtr(v float64) *float64 { return &v }

// seedProvenance creates a brand, type, club, and one provenance row for it,
// returning the club id.
func seedProvenance(t *testing.T, st *store.SQLiteStore, brand, modelName string, year int, url string, price *float64) int64 {
	t.Helper()
	ctx := context.Background()

	b, err := st.GetOrCreateBrand(ctx, brand)
	require.NoError(t, err)
	ct, err := st.GetOrCreateClubType(ctx, "Driver")
	require.NoError(t, err)
	clubID, _, err := st.InsertClub(ctx, &model.Club{
		BrandID:      b.ID,
		ClubTypeID:   ct.ID,
		ModelName:    modelName,
		YearReleased: year,
		CurrentPrice: price,
		IsCurrent:    true,
	})
	require.NoError(t, err)
	require.NoError(t, st.UpsertProductSource(ctx, &model.ProductSource{
		ClubID:     clubID,
		SourceName: "fake",
		ProductURL: url,
		Price:      price,
		InStock:    true,
	}))
	return clubID
}

// fakeSource is an in-memory source.Source. Pages and details are looked up
// from maps; a missing page is past the end. All methods are safe for
// concurrent use.
type fakeSource struct {
	mu         sync.Mutex
	name       string
	categories []string
	pages      map[string]map[int][]model.RawListing
	listErrs   map[string]map[int]error
	details    map[string]model.RawListing
	detailErrs map[string]error
	gone       map[string]bool
	endless    bool
	onList     func(q source.Query)
	queries    []source.Query
	detailURLs []string
}

func newFakeSource(categories ...string) *fakeSource {
	if len(categories) == 0 {
		categories = []string{"drivers"}
	}
	return &fakeSource{
		name:       "fake",
		categories: categories,
		pages:      make(map[string]map[int][]model.RawListing),
		listErrs:   make(map[string]map[int]error),
		details:    make(map[string]model.RawListing),
		detailErrs: make(map[string]error),
		gone:       make(map[string]bool),
	}
}

func (f *fakeSource) setPage(category string, page int, listings ...model.RawListing) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pages[category] == nil {
		f.pages[category] = make(map[int][]model.RawListing)
	}
	f.pages[category][page] = listings
}

func (f *fakeSource) setPageErr(category string, page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErrs[category] == nil {
		f.listErrs[category] = make(map[int]error)
	}
	f.listErrs[category][page] = err
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Categories() []string { return f.categories }

func (f *fakeSource) ListCategory(ctx context.Context, q source.Query) ([]model.RawListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)

	if f.onList != nil {
		f.onList(q)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if errs := f.listErrs[q.Category]; errs != nil {
		if err := errs[q.Page]; err != nil {
			return nil, err
		}
	}
	if f.endless {
		return []model.RawListing{{
			Source:    f.name,
			BrandText: "TaylorMade",
			ModelText: fmt.Sprintf("Endless %s %d", q.Category, q.Page),
			ClubType:  q.Category,
			Price:     pricePtr(99.99),
			DetailURL: fmt.Sprintf("/%s/%d", q.Category, q.Page),
			InStock:   true,
		}}, nil
	}
	return f.pages[q.Category][q.Page], nil
}

func (f *fakeSource) FetchDetail(ctx context.Context, detailURL string) (*model.RawListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailURLs = append(f.detailURLs, detailURL)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.gone[detailURL] {
		return nil, nil
	}
	if err := f.detailErrs[detailURL]; err != nil {
		return nil, err
	}
	if l, ok := f.details[detailURL]; ok {
		return &l, nil
	}
	return nil, fmt.Errorf("fake: no detail for %s", detailURL)
}

func (f *fakeSource) listCalls() []source.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]source.Query(nil), f.queries...)
}

func newTestRegistry(src source.Source) *source.Registry {
	reg := source.NewRegistry()
	reg.Register(src)
	return reg
}

func driverListing(brand, modelName string, price *float64, url string) model.RawListing {
	return model.RawListing{
		Source:    "fake",
		BrandText: brand,
		ModelText: modelName,
		ClubType:  "drivers",
		Price:     price,
		DetailURL: url,
		InStock:   true,
		Year:      2024,
	}
}

func newTestReconciler(st store.Store) *catalog.Reconciler {
	return catalog.NewReconciler(st, catalog.DefaultPolicy())
}
