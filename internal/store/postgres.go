package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/fairwaylabs/clubtrack/internal/db"
	"github.com/fairwaylabs/clubtrack/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot reconciliation path.
var preparedStatements = map[string]string{
	"get_club_by_identity": `SELECT id, brand_id, club_type_id, model_name, year_released, msrp, current_price, is_current, description, skill_level, created_at, updated_at
	 FROM golf_clubs WHERE brand_id = $1 AND model_name = $2 AND year_released = $3`,
	"update_club_price": `UPDATE golf_clubs SET current_price = $1, updated_at = $2
	 WHERE id = $3 AND current_price IS DISTINCT FROM $1`,
	"upsert_product_source": `INSERT INTO product_sources (golf_club_id, source_name, product_url, price, in_stock, last_checked, created_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $6)
	 ON CONFLICT (golf_club_id, source_name) DO UPDATE SET
	   product_url = EXCLUDED.product_url,
	   price = EXCLUDED.price,
	   in_stock = EXCLUDED.in_stock,
	   last_checked = EXCLUDED.last_checked`,
	"stale_product_sources": `SELECT id, golf_club_id, source_name, product_url, price, in_stock, last_checked, created_at
	 FROM product_sources
	 WHERE source_name = $1 AND last_checked < $2
	 ORDER BY last_checked ASC
	 LIMIT $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS brands (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	country    TEXT NOT NULL DEFAULT '',
	website    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_brands_name_ci ON brands (lower(name));

CREATE TABLE IF NOT EXISTS club_types (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS golf_clubs (
	id            BIGSERIAL PRIMARY KEY,
	brand_id      BIGINT NOT NULL REFERENCES brands(id),
	club_type_id  BIGINT NOT NULL REFERENCES club_types(id),
	model_name    TEXT NOT NULL,
	year_released INTEGER NOT NULL,
	msrp          NUMERIC(10,2),
	current_price NUMERIC(10,2),
	is_current    BOOLEAN NOT NULL DEFAULT true,
	description   TEXT NOT NULL DEFAULT '',
	skill_level   TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (brand_id, model_name, year_released)
);

CREATE INDEX IF NOT EXISTS idx_golf_clubs_brand ON golf_clubs(brand_id);
CREATE INDEX IF NOT EXISTS idx_golf_clubs_type ON golf_clubs(club_type_id);

CREATE TABLE IF NOT EXISTS product_sources (
	id           BIGSERIAL PRIMARY KEY,
	golf_club_id BIGINT NOT NULL REFERENCES golf_clubs(id),
	source_name  TEXT NOT NULL,
	product_url  TEXT NOT NULL,
	price        NUMERIC(10,2),
	in_stock     BOOLEAN NOT NULL DEFAULT true,
	last_checked TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (golf_club_id, source_name)
);

CREATE INDEX IF NOT EXISTS idx_product_sources_staleness ON product_sources(source_name, last_checked);

CREATE TABLE IF NOT EXISTS scrape_runs (
	id              TEXT PRIMARY KEY,
	source_name     TEXT NOT NULL,
	scrape_type     TEXT NOT NULL,
	status          TEXT NOT NULL DEFAULT 'running',
	records_added   INTEGER NOT NULL DEFAULT 0,
	records_updated INTEGER NOT NULL DEFAULT 0,
	error_message   TEXT NOT NULL DEFAULT '',
	started_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_scrape_runs_source ON scrape_runs(source_name, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_scrape_runs_status ON scrape_runs(status);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetOrCreateBrand(ctx context.Context, name string) (*model.Brand, error) {
	if name == "" {
		return nil, eris.New("postgres: brand name required")
	}

	b, err := s.getBrandByName(ctx, name)
	if err != nil || b != nil {
		return b, err
	}

	now := time.Now().UTC()
	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO brands (name, created_at) VALUES ($1, $2)
		 ON CONFLICT (lower(name)) DO NOTHING
		 RETURNING id`,
		name, now,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a create race: the brand exists now.
			return s.getBrandByName(ctx, name)
		}
		return nil, eris.Wrapf(err, "postgres: insert brand %s", name)
	}

	return &model.Brand{ID: id, Name: name, CreatedAt: now}, nil
}

func (s *PostgresStore) getBrandByName(ctx context.Context, name string) (*model.Brand, error) {
	var b model.Brand
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, country, website, created_at FROM brands WHERE lower(name) = lower($1)`,
		name,
	).Scan(&b.ID, &b.Name, &b.Country, &b.Website, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get brand %s", name)
	}
	return &b, nil
}

func (s *PostgresStore) UpsertBrand(ctx context.Context, b *model.Brand) (*model.Brand, error) {
	if b == nil || b.Name == "" {
		return nil, eris.New("postgres: brand name required")
	}

	var out model.Brand
	err := s.pool.QueryRow(ctx,
		`INSERT INTO brands (name, country, website, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (lower(name)) DO UPDATE SET
		   country = CASE WHEN EXCLUDED.country <> '' THEN EXCLUDED.country ELSE brands.country END,
		   website = CASE WHEN EXCLUDED.website <> '' THEN EXCLUDED.website ELSE brands.website END
		 RETURNING id, name, country, website, created_at`,
		b.Name, b.Country, b.Website, time.Now().UTC(),
	).Scan(&out.ID, &out.Name, &out.Country, &out.Website, &out.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert brand %s", b.Name)
	}
	return &out, nil
}

func (s *PostgresStore) ListBrands(ctx context.Context) ([]model.Brand, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, country, website, created_at FROM brands ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list brands")
	}
	defer rows.Close()

	var brands []model.Brand
	for rows.Next() {
		var b model.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Country, &b.Website, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan brand")
		}
		brands = append(brands, b)
	}
	return brands, eris.Wrap(rows.Err(), "postgres: list brands iterate")
}

func (s *PostgresStore) GetOrCreateClubType(ctx context.Context, name string) (*model.ClubType, error) {
	if name == "" {
		return nil, eris.New("postgres: club type name required")
	}

	ct, err := s.getClubTypeByName(ctx, name)
	if err != nil || ct != nil {
		return ct, err
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO club_types (name) VALUES ($1)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.getClubTypeByName(ctx, name)
		}
		return nil, eris.Wrapf(err, "postgres: insert club type %s", name)
	}

	return &model.ClubType{ID: id, Name: name}, nil
}

func (s *PostgresStore) getClubTypeByName(ctx context.Context, name string) (*model.ClubType, error) {
	var ct model.ClubType
	err := s.pool.QueryRow(ctx,
		`SELECT id, name FROM club_types WHERE name = $1`,
		name,
	).Scan(&ct.ID, &ct.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get club type %s", name)
	}
	return &ct, nil
}

func (s *PostgresStore) ListClubTypes(ctx context.Context) ([]model.ClubType, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM club_types ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list club types")
	}
	defer rows.Close()

	var types []model.ClubType
	for rows.Next() {
		var ct model.ClubType
		if err := rows.Scan(&ct.ID, &ct.Name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan club type")
		}
		types = append(types, ct)
	}
	return types, eris.Wrap(rows.Err(), "postgres: list club types iterate")
}

func (s *PostgresStore) GetClubByIdentity(ctx context.Context, brandID int64, modelName string, year int) (*model.Club, error) {
	var c model.Club
	err := s.pool.QueryRow(ctx,
		`SELECT id, brand_id, club_type_id, model_name, year_released, msrp, current_price, is_current, description, skill_level, created_at, updated_at
		 FROM golf_clubs WHERE brand_id = $1 AND model_name = $2 AND year_released = $3`,
		brandID, modelName, year,
	).Scan(&c.ID, &c.BrandID, &c.ClubTypeID, &c.ModelName, &c.YearReleased,
		&c.MSRP, &c.CurrentPrice, &c.IsCurrent, &c.Description, &c.SkillLevel,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get club %s", modelName)
	}
	return &c, nil
}

func (s *PostgresStore) InsertClub(ctx context.Context, c *model.Club) (int64, bool, error) {
	now := time.Now().UTC()
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO golf_clubs (brand_id, club_type_id, model_name, year_released, msrp, current_price, is_current, description, skill_level, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		 ON CONFLICT (brand_id, model_name, year_released) DO NOTHING
		 RETURNING id`,
		c.BrandID, c.ClubTypeID, c.ModelName, c.YearReleased,
		c.MSRP, c.CurrentPrice, c.IsCurrent, c.Description, c.SkillLevel, now,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Identity already exists (or another writer just created it).
			existing, gerr := s.GetClubByIdentity(ctx, c.BrandID, c.ModelName, c.YearReleased)
			if gerr != nil {
				return 0, false, gerr
			}
			if existing == nil {
				return 0, false, eris.Errorf("postgres: club conflict but not found: %s", c.ModelName)
			}
			return existing.ID, false, nil
		}
		return 0, false, eris.Wrapf(err, "postgres: insert club %s", c.ModelName)
	}
	return id, true, nil
}

func (s *PostgresStore) UpdateClubPrice(ctx context.Context, clubID int64, price float64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE golf_clubs SET current_price = $1, updated_at = $2
		 WHERE id = $3 AND current_price IS DISTINCT FROM $1`,
		price, time.Now().UTC(), clubID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: update club price %d", clubID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ListClubs(ctx context.Context, filter ClubFilter) ([]model.Club, error) {
	query := `SELECT gc.id, gc.brand_id, b.name, gc.club_type_id, ct.name, gc.model_name, gc.year_released, gc.msrp, gc.current_price, gc.is_current, gc.description, gc.skill_level, gc.created_at, gc.updated_at
	 FROM golf_clubs gc
	 JOIN brands b ON gc.brand_id = b.id
	 JOIN club_types ct ON gc.club_type_id = ct.id
	 WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Brand != "" {
		query += fmt.Sprintf(` AND b.name ILIKE $%d`, argIdx)
		args = append(args, "%"+filter.Brand+"%")
		argIdx++
	}
	if filter.ClubType != "" {
		query += fmt.Sprintf(` AND ct.name = $%d`, argIdx)
		args = append(args, filter.ClubType)
		argIdx++
	}
	if filter.Year != 0 {
		query += fmt.Sprintf(` AND gc.year_released = $%d`, argIdx)
		args = append(args, filter.Year)
		argIdx++
	}
	if filter.CurrentOnly {
		query += ` AND gc.is_current`
	}
	query += ` ORDER BY b.name, gc.year_released DESC, gc.model_name`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list clubs")
	}
	defer rows.Close()

	var clubs []model.Club
	for rows.Next() {
		var c model.Club
		if err := rows.Scan(&c.ID, &c.BrandID, &c.BrandName, &c.ClubTypeID, &c.ClubTypeName,
			&c.ModelName, &c.YearReleased, &c.MSRP, &c.CurrentPrice, &c.IsCurrent,
			&c.Description, &c.SkillLevel, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan club")
		}
		clubs = append(clubs, c)
	}
	return clubs, eris.Wrap(rows.Err(), "postgres: list clubs iterate")
}

func (s *PostgresStore) Stats(ctx context.Context) (*CatalogStats, error) {
	var stats CatalogStats
	err := s.pool.QueryRow(ctx,
		`SELECT
		 (SELECT COUNT(*) FROM brands),
		 (SELECT COUNT(*) FROM club_types),
		 (SELECT COUNT(*) FROM golf_clubs),
		 (SELECT COUNT(*) FROM product_sources)`,
	).Scan(&stats.Brands, &stats.ClubTypes, &stats.Clubs, &stats.Sources)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats")
	}
	return &stats, nil
}

func (s *PostgresStore) UpsertProductSource(ctx context.Context, ps *model.ProductSource) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO product_sources (golf_club_id, source_name, product_url, price, in_stock, last_checked, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (golf_club_id, source_name) DO UPDATE SET
		   product_url = EXCLUDED.product_url,
		   price = EXCLUDED.price,
		   in_stock = EXCLUDED.in_stock,
		   last_checked = EXCLUDED.last_checked`,
		ps.ClubID, ps.SourceName, ps.ProductURL, ps.Price, ps.InStock, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert product source %s", ps.SourceName)
}

func (s *PostgresStore) GetProductSource(ctx context.Context, clubID int64, sourceName string) (*model.ProductSource, error) {
	var ps model.ProductSource
	err := s.pool.QueryRow(ctx,
		`SELECT id, golf_club_id, source_name, product_url, price, in_stock, last_checked, created_at
		 FROM product_sources WHERE golf_club_id = $1 AND source_name = $2`,
		clubID, sourceName,
	).Scan(&ps.ID, &ps.ClubID, &ps.SourceName, &ps.ProductURL, &ps.Price,
		&ps.InStock, &ps.LastChecked, &ps.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get product source")
	}
	return &ps, nil
}

func (s *PostgresStore) ListStaleProductSources(ctx context.Context, sourceName string, olderThan time.Time, limit int) ([]model.ProductSource, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, golf_club_id, source_name, product_url, price, in_stock, last_checked, created_at
		 FROM product_sources
		 WHERE source_name = $1 AND last_checked < $2
		 ORDER BY last_checked ASC
		 LIMIT $3`,
		sourceName, olderThan, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list stale product sources")
	}
	defer rows.Close()

	var out []model.ProductSource
	for rows.Next() {
		var ps model.ProductSource
		if err := rows.Scan(&ps.ID, &ps.ClubID, &ps.SourceName, &ps.ProductURL, &ps.Price,
			&ps.InStock, &ps.LastChecked, &ps.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product source")
		}
		out = append(out, ps)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list stale iterate")
}

func (s *PostgresStore) StartRun(ctx context.Context, sourceName, scrapeType string) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scrape_runs (id, source_name, scrape_type, status, started_at) VALUES ($1, $2, $3, $4, $5)`,
		id, sourceName, scrapeType, string(model.RunStatusRunning), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: start run")
	}
	return id, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, added, updated int, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scrape_runs SET status = $1, records_added = $2, records_updated = $3, error_message = $4, completed_at = $5
		 WHERE id = $6 AND completed_at IS NULL`,
		string(status), added, updated, errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found or already finalized: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scrape_runs SET status = $1, error_message = $2, completed_at = $3
		 WHERE id = $4 AND completed_at IS NULL`,
		string(model.RunStatusFailed), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found or already finalized: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.ScrapeRun, error) {
	var r model.ScrapeRun
	err := s.pool.QueryRow(ctx,
		`SELECT id, source_name, scrape_type, status, records_added, records_updated, error_message, started_at, completed_at
		 FROM scrape_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.SourceName, &r.ScrapeType, &r.Status, &r.RecordsAdded,
		&r.RecordsUpdated, &r.ErrorMessage, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.ScrapeRun, error) {
	query := `SELECT id, source_name, scrape_type, status, records_added, records_updated, error_message, started_at, completed_at
	 FROM scrape_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Source != "" {
		query += fmt.Sprintf(` AND source_name = $%d`, argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(` AND scrape_type = $%d`, argIdx)
		args = append(args, filter.Type)
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.ScrapeRun
	for rows.Next() {
		var r model.ScrapeRun
		if err := rows.Scan(&r.ID, &r.SourceName, &r.ScrapeType, &r.Status, &r.RecordsAdded,
			&r.RecordsUpdated, &r.ErrorMessage, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) LastSuccessfulRun(ctx context.Context, sourceName string) (*time.Time, error) {
	var t time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT started_at FROM scrape_runs WHERE source_name = $1 AND status = $2
		 ORDER BY started_at DESC LIMIT 1`,
		sourceName, string(model.RunStatusSuccess),
	).Scan(&t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: last successful run")
	}
	return &t, nil
}

func (s *PostgresStore) ListRunSources(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT source_name FROM scrape_runs ORDER BY source_name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list run sources")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run source")
		}
		names = append(names, name)
	}
	return names, eris.Wrap(rows.Err(), "postgres: list run sources iterate")
}
