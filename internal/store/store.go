package store

import (
	"context"
	"time"

	"github.com/fairwaylabs/clubtrack/internal/model"
)

// RunFilter specifies criteria for listing scrape runs.
type RunFilter struct {
	Source string          `json:"source,omitempty"`
	Status model.RunStatus `json:"status,omitempty"`
	Type   string          `json:"type,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// ClubFilter specifies criteria for listing catalog clubs.
type ClubFilter struct {
	// Brand matches brand names case-insensitively as a substring.
	Brand string
	// ClubType matches the canonical club type name exactly.
	ClubType    string
	Year        int
	CurrentOnly bool
	Limit       int
}

// CatalogStats summarizes catalog row counts.
type CatalogStats struct {
	Brands    int `json:"brands"`
	ClubTypes int `json:"club_types"`
	Clubs     int `json:"clubs"`
	Sources   int `json:"sources"`
}

// Store defines the persistence interface for the acquisition pipeline.
// Lookup methods return (nil, nil) when the row does not exist.
type Store interface {
	// Brands
	GetOrCreateBrand(ctx context.Context, name string) (*model.Brand, error)
	// UpsertBrand inserts a brand or fills in country/website on an
	// existing one. The stored name keeps its first-seen casing.
	UpsertBrand(ctx context.Context, b *model.Brand) (*model.Brand, error)
	ListBrands(ctx context.Context) ([]model.Brand, error)

	// Club types
	GetOrCreateClubType(ctx context.Context, name string) (*model.ClubType, error)
	ListClubTypes(ctx context.Context) ([]model.ClubType, error)

	// Clubs
	GetClubByIdentity(ctx context.Context, brandID int64, modelName string, year int) (*model.Club, error)
	// InsertClub inserts a club, returning its id and true. If another
	// writer created the same identity first, it returns the existing id
	// and false.
	InsertClub(ctx context.Context, c *model.Club) (int64, bool, error)
	// UpdateClubPrice sets current_price, reporting whether the stored
	// value actually changed.
	UpdateClubPrice(ctx context.Context, clubID int64, price float64) (bool, error)
	ListClubs(ctx context.Context, filter ClubFilter) ([]model.Club, error)
	Stats(ctx context.Context) (*CatalogStats, error)

	// Provenance
	UpsertProductSource(ctx context.Context, ps *model.ProductSource) error
	GetProductSource(ctx context.Context, clubID int64, sourceName string) (*model.ProductSource, error)
	// ListStaleProductSources returns rows for sourceName whose
	// last_checked is before olderThan, oldest first.
	ListStaleProductSources(ctx context.Context, sourceName string, olderThan time.Time, limit int) ([]model.ProductSource, error)

	// Runs
	StartRun(ctx context.Context, sourceName, scrapeType string) (string, error)
	// CompleteRun finalizes a run exactly once; completing an already
	// finalized run is an error.
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, added, updated int, errMsg string) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.ScrapeRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.ScrapeRun, error)
	LastSuccessfulRun(ctx context.Context, sourceName string) (*time.Time, error)
	// ListRunSources returns every source name that has at least one run,
	// sorted by name.
	ListRunSources(ctx context.Context) ([]string, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
