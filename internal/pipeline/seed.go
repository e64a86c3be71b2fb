package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fairwaylabs/clubtrack/internal/catalog"
	"github.com/fairwaylabs/clubtrack/internal/model"
	"github.com/fairwaylabs/clubtrack/internal/store"
)

// seedSourceName labels seed runs in the audit log; seeds have no retailer.
const seedSourceName = "historical-seed"

// Seeder loads curated historical releases into the catalog. Entries are
// insert-if-absent by identity; seeding never overwrites scraped data.
type Seeder struct {
	st  store.Store
	now func() time.Time
}

// NewSeeder builds a seeder over the given store.
func NewSeeder(st store.Store) *Seeder {
	return &Seeder{st: st, now: time.Now}
}

// LoadSeedFile reads and decodes a YAML seed file.
func LoadSeedFile(path string) (*model.SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read seed file %s", path)
	}
	var f model.SeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrapf(err, "pipeline: parse seed file %s", path)
	}
	return &f, nil
}

// Run seeds the catalog from a decoded seed file. Releases older than
// maxYears are skipped; releases within two calendar years are marked
// current, matching how scraped listings enter the catalog.
func (s *Seeder) Run(ctx context.Context, seed *model.SeedFile, maxYears int) (*model.RunSummary, error) {
	if maxYears <= 0 {
		maxYears = 10
	}

	runID, err := s.st.StartRun(ctx, seedSourceName, model.ScrapeTypeSeed)
	if err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("run_id", runID))

	currentYear := s.now().Year()
	minYear := currentYear - maxYears

	summary := &model.RunSummary{RunID: runID}
	skipped := 0

	for _, b := range seed.Brands {
		if b.Name == "" {
			summary.Errors++
			log.Warn("seed: brand entry missing name")
			continue
		}
		if _, err := s.st.UpsertBrand(ctx, &model.Brand{Name: b.Name, Country: b.Country, Website: b.Website}); err != nil {
			summary.Errors++
			log.Warn("seed: brand upsert failed", zap.String("brand", b.Name), zap.Error(err))
		}
	}

	for _, c := range seed.Clubs {
		if ctx.Err() != nil {
			finalizeFailed(s.st, runID, ctx.Err(), log)
			return nil, eris.Wrap(ctx.Err(), "pipeline: seed canceled")
		}
		if c.Brand == "" || c.Model == "" || c.ClubType == "" {
			summary.Errors++
			log.Warn("seed: club entry missing required fields",
				zap.String("brand", c.Brand),
				zap.String("model", c.Model),
			)
			continue
		}

		year := c.Year
		if year == 0 {
			year = currentYear
		}
		if year < minYear {
			skipped++
			continue
		}

		brand, err := s.st.GetOrCreateBrand(ctx, c.Brand)
		if err != nil {
			summary.Errors++
			log.Warn("seed: brand lookup failed", zap.String("brand", c.Brand), zap.Error(err))
			continue
		}

		typeName, _ := catalog.CanonicalClubType(c.ClubType)
		clubType, err := s.st.GetOrCreateClubType(ctx, typeName)
		if err != nil {
			summary.Errors++
			log.Warn("seed: club type lookup failed", zap.String("club_type", c.ClubType), zap.Error(err))
			continue
		}

		existing, err := s.st.GetClubByIdentity(ctx, brand.ID, c.Model, year)
		if err != nil {
			summary.Errors++
			log.Warn("seed: identity lookup failed", zap.String("model", c.Model), zap.Error(err))
			continue
		}
		if existing != nil {
			skipped++
			continue
		}

		_, inserted, err := s.st.InsertClub(ctx, &model.Club{
			BrandID:      brand.ID,
			ClubTypeID:   clubType.ID,
			ModelName:    c.Model,
			YearReleased: year,
			MSRP:         c.MSRP,
			IsCurrent:    year >= currentYear-2,
			Description:  c.Description,
			SkillLevel:   c.SkillLevel,
		})
		if err != nil {
			summary.Errors++
			log.Warn("seed: insert failed", zap.String("model", c.Model), zap.Error(err))
			continue
		}
		if inserted {
			summary.RecordsAdded++
		} else {
			skipped++
		}
	}

	status := model.RunStatusSuccess
	var errMsg string
	if summary.Errors > 0 {
		status = model.RunStatusPartial
		errMsg = fmt.Sprintf("%d errors", summary.Errors)
	}
	if err := s.st.CompleteRun(ctx, runID, status, summary.RecordsAdded, 0, errMsg); err != nil {
		return nil, err
	}

	log.Info("seed: finished",
		zap.String("status", string(status)),
		zap.Int("added", summary.RecordsAdded),
		zap.Int("skipped", skipped),
		zap.Int("errors", summary.Errors),
	)
	return summary, nil
}
