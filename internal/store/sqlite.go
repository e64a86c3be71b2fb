package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/fairwaylabs/clubtrack/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS brands (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL COLLATE NOCASE UNIQUE,
	country    TEXT NOT NULL DEFAULT '',
	website    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS club_types (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS golf_clubs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	brand_id      INTEGER NOT NULL REFERENCES brands(id),
	club_type_id  INTEGER NOT NULL REFERENCES club_types(id),
	model_name    TEXT NOT NULL,
	year_released INTEGER NOT NULL,
	msrp          NUMERIC(10,2),
	current_price NUMERIC(10,2),
	is_current    BOOLEAN NOT NULL DEFAULT 1,
	description   TEXT NOT NULL DEFAULT '',
	skill_level   TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (brand_id, model_name, year_released)
);

CREATE INDEX IF NOT EXISTS idx_golf_clubs_brand ON golf_clubs(brand_id);
CREATE INDEX IF NOT EXISTS idx_golf_clubs_type ON golf_clubs(club_type_id);

CREATE TABLE IF NOT EXISTS product_sources (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	golf_club_id INTEGER NOT NULL REFERENCES golf_clubs(id),
	source_name  TEXT NOT NULL,
	product_url  TEXT NOT NULL,
	price        NUMERIC(10,2),
	in_stock     BOOLEAN NOT NULL DEFAULT 1,
	last_checked DATETIME NOT NULL DEFAULT (datetime('now')),
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
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
	started_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at    DATETIME
);

CREATE INDEX IF NOT EXISTS idx_scrape_runs_source ON scrape_runs(source_name, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_scrape_runs_status ON scrape_runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetOrCreateBrand(ctx context.Context, name string) (*model.Brand, error) {
	if name == "" {
		return nil, eris.New("sqlite: brand name required")
	}

	b, err := s.getBrandByName(ctx, name)
	if err != nil || b != nil {
		return b, err
	}

	now := time.Now().UTC()
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO brands (name, created_at) VALUES (?, ?)
		 ON CONFLICT(name) DO NOTHING
		 RETURNING id`,
		name, now,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost a create race: the brand exists now.
			return s.getBrandByName(ctx, name)
		}
		return nil, eris.Wrapf(err, "sqlite: insert brand %s", name)
	}

	return &model.Brand{ID: id, Name: name, CreatedAt: now}, nil
}

// getBrandByName matches case-insensitively via the column's NOCASE collation.
func (s *SQLiteStore) getBrandByName(ctx context.Context, name string) (*model.Brand, error) {
	var b model.Brand
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, country, website, created_at FROM brands WHERE name = ?`,
		name,
	).Scan(&b.ID, &b.Name, &b.Country, &b.Website, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get brand %s", name)
	}
	return &b, nil
}

func (s *SQLiteStore) UpsertBrand(ctx context.Context, b *model.Brand) (*model.Brand, error) {
	if b == nil || b.Name == "" {
		return nil, eris.New("sqlite: brand name required")
	}

	var out model.Brand
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO brands (name, country, website, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   country = CASE WHEN excluded.country <> '' THEN excluded.country ELSE brands.country END,
		   website = CASE WHEN excluded.website <> '' THEN excluded.website ELSE brands.website END
		 RETURNING id, name, country, website, created_at`,
		b.Name, b.Country, b.Website, time.Now().UTC(),
	).Scan(&out.ID, &out.Name, &out.Country, &out.Website, &out.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert brand %s", b.Name)
	}
	return &out, nil
}

func (s *SQLiteStore) ListBrands(ctx context.Context) ([]model.Brand, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, country, website, created_at FROM brands ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list brands")
	}
	defer rows.Close()

	var brands []model.Brand
	for rows.Next() {
		var b model.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Country, &b.Website, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan brand")
		}
		brands = append(brands, b)
	}
	return brands, eris.Wrap(rows.Err(), "sqlite: list brands iterate")
}

func (s *SQLiteStore) GetOrCreateClubType(ctx context.Context, name string) (*model.ClubType, error) {
	if name == "" {
		return nil, eris.New("sqlite: club type name required")
	}

	ct, err := s.getClubTypeByName(ctx, name)
	if err != nil || ct != nil {
		return ct, err
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO club_types (name) VALUES (?)
		 ON CONFLICT(name) DO NOTHING
		 RETURNING id`,
		name,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.getClubTypeByName(ctx, name)
		}
		return nil, eris.Wrapf(err, "sqlite: insert club type %s", name)
	}

	return &model.ClubType{ID: id, Name: name}, nil
}

func (s *SQLiteStore) getClubTypeByName(ctx context.Context, name string) (*model.ClubType, error) {
	var ct model.ClubType
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM club_types WHERE name = ?`,
		name,
	).Scan(&ct.ID, &ct.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get club type %s", name)
	}
	return &ct, nil
}

func (s *SQLiteStore) ListClubTypes(ctx context.Context) ([]model.ClubType, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM club_types ORDER BY name`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list club types")
	}
	defer rows.Close()

	var types []model.ClubType
	for rows.Next() {
		var ct model.ClubType
		if err := rows.Scan(&ct.ID, &ct.Name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan club type")
		}
		types = append(types, ct)
	}
	return types, eris.Wrap(rows.Err(), "sqlite: list club types iterate")
}

func (s *SQLiteStore) GetClubByIdentity(ctx context.Context, brandID int64, modelName string, year int) (*model.Club, error) {
	var c model.Club
	err := s.db.QueryRowContext(ctx,
		`SELECT id, brand_id, club_type_id, model_name, year_released, msrp, current_price, is_current, description, skill_level, created_at, updated_at
		 FROM golf_clubs WHERE brand_id = ? AND model_name = ? AND year_released = ?`,
		brandID, modelName, year,
	).Scan(&c.ID, &c.BrandID, &c.ClubTypeID, &c.ModelName, &c.YearReleased,
		&c.MSRP, &c.CurrentPrice, &c.IsCurrent, &c.Description, &c.SkillLevel,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get club %s", modelName)
	}
	return &c, nil
}

func (s *SQLiteStore) InsertClub(ctx context.Context, c *model.Club) (int64, bool, error) {
	now := time.Now().UTC()
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO golf_clubs (brand_id, club_type_id, model_name, year_released, msrp, current_price, is_current, description, skill_level, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(brand_id, model_name, year_released) DO NOTHING
		 RETURNING id`,
		c.BrandID, c.ClubTypeID, c.ModelName, c.YearReleased,
		c.MSRP, c.CurrentPrice, c.IsCurrent, c.Description, c.SkillLevel, now, now,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Identity already exists (or another writer just created it).
			existing, gerr := s.GetClubByIdentity(ctx, c.BrandID, c.ModelName, c.YearReleased)
			if gerr != nil {
				return 0, false, gerr
			}
			if existing == nil {
				return 0, false, eris.Errorf("sqlite: club conflict but not found: %s", c.ModelName)
			}
			return existing.ID, false, nil
		}
		return 0, false, eris.Wrapf(err, "sqlite: insert club %s", c.ModelName)
	}
	return id, true, nil
}

func (s *SQLiteStore) UpdateClubPrice(ctx context.Context, clubID int64, price float64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE golf_clubs SET current_price = ?, updated_at = ?
		 WHERE id = ? AND current_price IS NOT ?`,
		price, time.Now().UTC(), clubID, price,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: update club price %d", clubID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: update club price rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListClubs(ctx context.Context, filter ClubFilter) ([]model.Club, error) {
	query := `SELECT gc.id, gc.brand_id, b.name, gc.club_type_id, ct.name, gc.model_name, gc.year_released, gc.msrp, gc.current_price, gc.is_current, gc.description, gc.skill_level, gc.created_at, gc.updated_at
	 FROM golf_clubs gc
	 JOIN brands b ON gc.brand_id = b.id
	 JOIN club_types ct ON gc.club_type_id = ct.id
	 WHERE 1=1`
	var args []any

	if filter.Brand != "" {
		query += ` AND b.name LIKE ?`
		args = append(args, "%"+filter.Brand+"%")
	}
	if filter.ClubType != "" {
		query += ` AND ct.name = ?`
		args = append(args, filter.ClubType)
	}
	if filter.Year != 0 {
		query += ` AND gc.year_released = ?`
		args = append(args, filter.Year)
	}
	if filter.CurrentOnly {
		query += ` AND gc.is_current = 1`
	}
	query += ` ORDER BY b.name, gc.year_released DESC, gc.model_name`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list clubs")
	}
	defer rows.Close()

	var clubs []model.Club
	for rows.Next() {
		var c model.Club
		if err := rows.Scan(&c.ID, &c.BrandID, &c.BrandName, &c.ClubTypeID, &c.ClubTypeName,
			&c.ModelName, &c.YearReleased, &c.MSRP, &c.CurrentPrice, &c.IsCurrent,
			&c.Description, &c.SkillLevel, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan club")
		}
		clubs = append(clubs, c)
	}
	return clubs, eris.Wrap(rows.Err(), "sqlite: list clubs iterate")
}

func (s *SQLiteStore) Stats(ctx context.Context) (*CatalogStats, error) {
	var stats CatalogStats
	err := s.db.QueryRowContext(ctx,
		`SELECT
		 (SELECT COUNT(*) FROM brands),
		 (SELECT COUNT(*) FROM club_types),
		 (SELECT COUNT(*) FROM golf_clubs),
		 (SELECT COUNT(*) FROM product_sources)`,
	).Scan(&stats.Brands, &stats.ClubTypes, &stats.Clubs, &stats.Sources)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}
	return &stats, nil
}

func (s *SQLiteStore) UpsertProductSource(ctx context.Context, ps *model.ProductSource) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO product_sources (golf_club_id, source_name, product_url, price, in_stock, last_checked, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(golf_club_id, source_name) DO UPDATE SET
		   product_url = excluded.product_url,
		   price = excluded.price,
		   in_stock = excluded.in_stock,
		   last_checked = excluded.last_checked`,
		ps.ClubID, ps.SourceName, ps.ProductURL, ps.Price, ps.InStock, now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert product source %s", ps.SourceName)
}

func (s *SQLiteStore) GetProductSource(ctx context.Context, clubID int64, sourceName string) (*model.ProductSource, error) {
	var ps model.ProductSource
	err := s.db.QueryRowContext(ctx,
		`SELECT id, golf_club_id, source_name, product_url, price, in_stock, last_checked, created_at
		 FROM product_sources WHERE golf_club_id = ? AND source_name = ?`,
		clubID, sourceName,
	).Scan(&ps.ID, &ps.ClubID, &ps.SourceName, &ps.ProductURL, &ps.Price,
		&ps.InStock, &ps.LastChecked, &ps.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get product source")
	}
	return &ps, nil
}

func (s *SQLiteStore) ListStaleProductSources(ctx context.Context, sourceName string, olderThan time.Time, limit int) ([]model.ProductSource, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, golf_club_id, source_name, product_url, price, in_stock, last_checked, created_at
		 FROM product_sources
		 WHERE source_name = ? AND last_checked < ?
		 ORDER BY last_checked ASC
		 LIMIT ?`,
		sourceName, olderThan, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list stale product sources")
	}
	defer rows.Close()

	var out []model.ProductSource
	for rows.Next() {
		var ps model.ProductSource
		if err := rows.Scan(&ps.ID, &ps.ClubID, &ps.SourceName, &ps.ProductURL, &ps.Price,
			&ps.InStock, &ps.LastChecked, &ps.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product source")
		}
		out = append(out, ps)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list stale iterate")
}

func (s *SQLiteStore) StartRun(ctx context.Context, sourceName, scrapeType string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scrape_runs (id, source_name, scrape_type, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, sourceName, scrapeType, string(model.RunStatusRunning), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: start run")
	}
	return id, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, added, updated int, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scrape_runs SET status = ?, records_added = ?, records_updated = ?, error_message = ?, completed_at = ?
		 WHERE id = ? AND completed_at IS NULL`,
		string(status), added, updated, errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: complete run rows affected")
	}
	if n == 0 {
		return eris.Errorf("run not found or already finalized: %s", runID)
	}
	return nil
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scrape_runs SET status = ?, error_message = ?, completed_at = ?
		 WHERE id = ? AND completed_at IS NULL`,
		string(model.RunStatusFailed), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: fail run rows affected")
	}
	if n == 0 {
		return eris.Errorf("run not found or already finalized: %s", runID)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.ScrapeRun, error) {
	var r model.ScrapeRun
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_name, scrape_type, status, records_added, records_updated, error_message, started_at, completed_at
		 FROM scrape_runs WHERE id = ?`,
		runID,
	).Scan(&r.ID, &r.SourceName, &r.ScrapeType, &r.Status, &r.RecordsAdded,
		&r.RecordsUpdated, &r.ErrorMessage, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.ScrapeRun, error) {
	query := `SELECT id, source_name, scrape_type, status, records_added, records_updated, error_message, started_at, completed_at
	 FROM scrape_runs WHERE 1=1`
	var args []any

	if filter.Source != "" {
		query += ` AND source_name = ?`
		args = append(args, filter.Source)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		query += ` AND scrape_type = ?`
		args = append(args, filter.Type)
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.ScrapeRun
	for rows.Next() {
		var r model.ScrapeRun
		if err := rows.Scan(&r.ID, &r.SourceName, &r.ScrapeType, &r.Status, &r.RecordsAdded,
			&r.RecordsUpdated, &r.ErrorMessage, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) LastSuccessfulRun(ctx context.Context, sourceName string) (*time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at FROM scrape_runs WHERE source_name = ? AND status = ?
		 ORDER BY started_at DESC LIMIT 1`,
		sourceName, string(model.RunStatusSuccess),
	).Scan(&t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: last successful run")
	}
	return &t, nil
}

func (s *SQLiteStore) ListRunSources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT source_name FROM scrape_runs ORDER BY source_name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list run sources")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run source")
		}
		names = append(names, name)
	}
	return names, eris.Wrap(rows.Err(), "sqlite: list run sources iterate")
}
