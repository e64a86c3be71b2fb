// Package source defines the retailer adapter contract and the adapters
// that implement it. An adapter knows one retailer's URL scheme and page
// markup; everything else (rate limiting, reconciliation, run logging)
// lives outside.
package source

import (
	"context"

	"github.com/fairwaylabs/clubtrack/internal/model"
)

// Query selects one page of one category listing.
type Query struct {
	// Category is the adapter's category slug ("drivers", "putters", ...).
	Category string

	// Page is the 1-based listing page number.
	Page int

	// Brand optionally narrows the listing to a single brand.
	Brand string
}

// Source is a single retailer adapter.
type Source interface {
	// Name returns the adapter's registry name, also used as the
	// provenance source_name.
	Name() string

	// Categories returns the category slugs this adapter understands.
	Categories() []string

	// ListCategory fetches one listing page and extracts its items. An
	// empty slice with a nil error means the page is past the end of the
	// listing. Items that fail extraction are skipped, not errors.
	ListCategory(ctx context.Context, q Query) ([]model.RawListing, error)

	// FetchDetail fetches a single product page. A (nil, nil) return
	// means the product page no longer exists (404/410), which callers
	// treat as "vanished" rather than a failure.
	FetchDetail(ctx context.Context, detailURL string) (*model.RawListing, error)
}
