package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairwaylabs/clubtrack/internal/model"
	"github.com/fairwaylabs/clubtrack/internal/store"
)

// Policy controls what the reconciler does with brand or club-type text it
// has never seen. First-sighting creation mirrors the observed retailer
// behavior but pollutes the catalog when scraping noise leaks through, so
// either side can be switched to reject-and-log.
type Policy struct {
	CreateUnknownBrands bool
	CreateUnknownTypes  bool
}

// DefaultPolicy creates unknown brands and club types on first sighting.
func DefaultPolicy() Policy {
	return Policy{CreateUnknownBrands: true, CreateUnknownTypes: true}
}

// Outcome classifies what one Reconcile call did to the catalog.
type Outcome int

const (
	// OutcomeSkipped means the listing was held for review (unknown brand or
	// type under a rejecting policy) or errored before touching the catalog.
	OutcomeSkipped Outcome = iota
	// OutcomeCreated means a new canonical club row was inserted.
	OutcomeCreated
	// OutcomeUpdated means an existing club's price changed.
	OutcomeUpdated
	// OutcomeUnchanged means the club existed and its price did not move.
	OutcomeUnchanged
)

// String returns the human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Reconciler folds raw listings into the canonical catalog. It is safe for
// concurrent use; the brand cache is guarded and store writes are races the
// store already resolves (insert conflicts re-read the winner).
type Reconciler struct {
	st     store.Store
	policy Policy
	now    func() time.Time

	mu     sync.Mutex
	brands []model.Brand
	loaded bool
}

// NewReconciler builds a reconciler over the given store.
func NewReconciler(st store.Store, policy Policy) *Reconciler {
	return &Reconciler{st: st, policy: policy, now: time.Now}
}

// Reconcile merges one raw listing into the catalog and reports what
// happened. Errors never abort the caller's batch; the caller counts them.
func (r *Reconciler) Reconcile(ctx context.Context, listing model.RawListing) (Outcome, error) {
	if listing.BrandText == "" || listing.ModelText == "" {
		return OutcomeSkipped, eris.Errorf("catalog: listing missing brand or model (url %s)", listing.DetailURL)
	}

	brand, err := r.resolveBrand(ctx, listing.BrandText)
	if err != nil {
		return OutcomeSkipped, err
	}
	if brand == nil {
		zap.L().Info("catalog: unknown brand held for review",
			zap.String("brand", listing.BrandText),
			zap.String("model", listing.ModelText),
			zap.String("source", listing.Source),
		)
		return OutcomeSkipped, nil
	}

	clubType, err := r.resolveClubType(ctx, listing.ClubType)
	if err != nil {
		return OutcomeSkipped, err
	}
	if clubType == nil {
		zap.L().Info("catalog: unknown club type held for review",
			zap.String("club_type", listing.ClubType),
			zap.String("model", listing.ModelText),
			zap.String("source", listing.Source),
		)
		return OutcomeSkipped, nil
	}

	// Sources rarely expose a release year on listing pages; assume the
	// current model year until a detail fetch or seed corrects it.
	year := listing.Year
	if year == 0 {
		year = r.now().Year()
	}

	club, err := r.st.GetClubByIdentity(ctx, brand.ID, listing.ModelText, year)
	if err != nil {
		return OutcomeSkipped, err
	}

	if club == nil {
		id, inserted, err := r.st.InsertClub(ctx, &model.Club{
			BrandID:      brand.ID,
			ClubTypeID:   clubType.ID,
			ModelName:    listing.ModelText,
			YearReleased: year,
			CurrentPrice: listing.Price,
			IsCurrent:    true,
		})
		if err != nil {
			return OutcomeSkipped, err
		}
		if inserted {
			// The club row exists even if the provenance write fails, so
			// the outcome stays Created and the caller counts the error.
			return OutcomeCreated, r.recordSource(ctx, id, listing)
		}
		// Lost an insert race: another worker created the identity first.
		club = &model.Club{ID: id}
	}

	if err := r.recordSource(ctx, club.ID, listing); err != nil {
		return OutcomeSkipped, err
	}

	if listing.Price == nil {
		return OutcomeUnchanged, nil
	}
	changed, err := r.st.UpdateClubPrice(ctx, club.ID, *listing.Price)
	if err != nil {
		return OutcomeSkipped, err
	}
	if changed {
		return OutcomeUpdated, nil
	}
	return OutcomeUnchanged, nil
}

// ApplyRefresh folds a re-fetched detail into an existing provenance row and
// propagates the price to the canonical club. It never creates catalog rows.
// The boolean reports whether the club price actually moved.
func (r *Reconciler) ApplyRefresh(ctx context.Context, src model.ProductSource, listing model.RawListing) (bool, error) {
	src.Price = listing.Price
	src.InStock = listing.InStock
	if listing.DetailURL != "" {
		src.ProductURL = listing.DetailURL
	}
	if err := r.st.UpsertProductSource(ctx, &src); err != nil {
		return false, err
	}
	if listing.Price == nil {
		return false, nil
	}
	return r.st.UpdateClubPrice(ctx, src.ClubID, *listing.Price)
}

func (r *Reconciler) recordSource(ctx context.Context, clubID int64, listing model.RawListing) error {
	return r.st.UpsertProductSource(ctx, &model.ProductSource{
		ClubID:     clubID,
		SourceName: listing.Source,
		ProductURL: listing.DetailURL,
		Price:      listing.Price,
		InStock:    listing.InStock,
	})
}

// resolveBrand matches listing brand text against known brands: exact
// case-insensitive first, then the longest known brand name contained in the
// text ("TaylorMade Golf" resolves to "TaylorMade"). Unknown text creates a
// brand or returns nil according to policy.
func (r *Reconciler) resolveBrand(ctx context.Context, text string) (*model.Brand, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		brands, err := r.st.ListBrands(ctx)
		if err != nil {
			return nil, err
		}
		r.brands = brands
		r.loaded = true
	}

	for i := range r.brands {
		if strings.EqualFold(r.brands[i].Name, text) {
			b := r.brands[i]
			return &b, nil
		}
	}

	lower := strings.ToLower(text)
	var best *model.Brand
	bestLen := 0
	for i := range r.brands {
		name := strings.ToLower(r.brands[i].Name)
		if strings.Contains(lower, name) && len(name) > bestLen {
			best = &r.brands[i]
			bestLen = len(name)
		}
	}
	if best != nil {
		b := *best
		return &b, nil
	}

	if !r.policy.CreateUnknownBrands {
		return nil, nil
	}
	b, err := r.st.GetOrCreateBrand(ctx, text)
	if err != nil {
		return nil, err
	}
	r.brands = append(r.brands, *b)
	return b, nil
}

// resolveClubType normalizes through the fixed vocabulary. Vocabulary hits
// always resolve; anything else is created from its title-cased form or
// rejected according to policy.
func (r *Reconciler) resolveClubType(ctx context.Context, raw string) (*model.ClubType, error) {
	name, known := CanonicalClubType(raw)
	if name == "" {
		return nil, nil
	}
	if !known && !r.policy.CreateUnknownTypes {
		return nil, nil
	}
	return r.st.GetOrCreateClubType(ctx, name)
}
