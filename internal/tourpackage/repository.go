package tourpackage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"taxibooking/pkg/db"
)

var (
	ErrNotFound  = errors.New("package not found")
	ErrSlugTaken = errors.New("package slug already exists")
	// ErrUnknownReference is returned when a price names a vehicle type or season that does not exist.
	ErrUnknownReference = errors.New("price references an unknown vehicle type or season")
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const columns = `id, slug, kind, title, summary, description, duration_hours::text, distance_km::text, image_url,
  highlights, temple_ids::text[], is_active, sort_order, created_at, updated_at`

func scan(row pgx.Row) (Package, error) {
	var (
		p                  Package
		duration, distance string
		highlights         []byte
	)
	err := row.Scan(&p.ID, &p.Slug, &p.Kind, &p.Title, &p.Summary, &p.Description, &duration, &distance, &p.ImageURL,
		&highlights, &p.TempleIDs, &p.IsActive, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Package{}, err
	}
	p.DurationHours, _ = decimal.NewFromString(duration)
	p.DistanceKM, _ = decimal.NewFromString(distance)
	if err := json.Unmarshal(highlights, &p.Highlights); err != nil {
		return Package{}, err
	}
	if p.Highlights == nil {
		p.Highlights = []string{}
	}
	if p.TempleIDs == nil {
		p.TempleIDs = []string{}
	}
	return p, nil
}

// List returns packages of kind ("" for all). Public callers pass includeInactive=false.
func (r *Repository) List(ctx context.Context, kind Kind, includeInactive bool) ([]Package, error) {
	q := `SELECT ` + columns + `
FROM packages
WHERE deleted_at IS NULL AND ($1 = '' OR kind = $1) AND ($2 OR is_active)
ORDER BY sort_order, title`
	rows, err := db.Conn(ctx, r.db).Query(ctx, q, string(kind), includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Package
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetActiveBySlug(ctx context.Context, slug string) (Package, error) {
	q := `SELECT ` + columns + ` FROM packages WHERE slug = $1 AND is_active AND deleted_at IS NULL`
	p, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, slug))
	if db.IsNoRows(err) {
		return Package{}, ErrNotFound
	}
	return p, err
}

// Get loads a package by id, including inactive ones but not deleted ones.
func (r *Repository) Get(ctx context.Context, id string) (Package, error) {
	q := `SELECT ` + columns + ` FROM packages WHERE id = $1 AND deleted_at IS NULL`
	p, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, id))
	if db.IsNoRows(err) || db.IsInvalidInput(err) {
		return Package{}, ErrNotFound
	}
	return p, err
}

func highlightsJSON(h []string) string {
	if h == nil {
		h = []string{}
	}
	b, _ := json.Marshal(h)
	return string(b)
}

func templeIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func (r *Repository) Create(ctx context.Context, in Input) (Package, error) {
	q := `
INSERT INTO packages (slug, kind, title, summary, description, duration_hours, distance_km, image_url,
  highlights, temple_ids, is_active, sort_order)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS numeric), CAST($7 AS numeric), $8, CAST($9 AS jsonb), CAST($10::text[] AS uuid[]), $11, $12)
RETURNING ` + columns
	p, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, in.Slug, string(in.Kind), in.Title, in.Summary, in.Description,
		in.DurationHours.String(), in.DistanceKM.String(), in.ImageURL, highlightsJSON(in.Highlights), templeIDs(in.TempleIDs),
		in.IsActive == nil || *in.IsActive, in.SortOrder))
	if db.IsUniqueViolation(err) {
		return Package{}, ErrSlugTaken
	}
	return p, err
}

func (r *Repository) Update(ctx context.Context, id string, in Input) (Package, error) {
	q := `
UPDATE packages
SET slug = $2, kind = $3, title = $4, summary = $5, description = $6,
    duration_hours = CAST($7 AS numeric), distance_km = CAST($8 AS numeric), image_url = $9,
    highlights = CAST($10 AS jsonb), temple_ids = CAST($11::text[] AS uuid[]),
    is_active = $12, sort_order = $13, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + columns
	p, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, id, in.Slug, string(in.Kind), in.Title, in.Summary, in.Description,
		in.DurationHours.String(), in.DistanceKM.String(), in.ImageURL, highlightsJSON(in.Highlights), templeIDs(in.TempleIDs),
		in.IsActive == nil || *in.IsActive, in.SortOrder))
	switch {
	case db.IsNoRows(err), db.IsInvalidInput(err):
		return Package{}, ErrNotFound
	case db.IsUniqueViolation(err):
		return Package{}, ErrSlugTaken
	}
	return p, err
}

// Delete soft-deletes by default; hard removes the package and its prices.
func (r *Repository) Delete(ctx context.Context, id string, hard bool) error {
	q := `UPDATE packages SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	if hard {
		q = `DELETE FROM packages WHERE id = $1`
	}
	tag, err := db.Conn(ctx, r.db).Exec(ctx, q, id)
	if db.IsInvalidInput(err) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) Prices(ctx context.Context, packageID string) ([]Price, error) {
	const q = `
SELECT pp.vehicle_type, pp.season_id::text, COALESCE(s.name, ''), pp.price::text
FROM package_prices pp
LEFT JOIN seasons s ON s.id = pp.season_id
WHERE pp.package_id = $1
ORDER BY pp.vehicle_type, s.start_date NULLS FIRST
`
	rows, err := db.Conn(ctx, r.db).Query(ctx, q, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Price
	for rows.Next() {
		var p Price
		var amount string
		if err := rows.Scan(&p.VehicleType, &p.SeasonID, &p.SeasonName, &amount); err != nil {
			return nil, err
		}
		p.Price, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReplacePrices swaps the whole price table of a package in one transaction.
func (r *Repository) ReplacePrices(ctx context.Context, packageID string, prices []PriceInput) error {
	return db.RunInTx(ctx, r.db, func(ctx context.Context) error {
		conn := db.Conn(ctx, r.db)
		var locked string
		err := conn.QueryRow(ctx, `SELECT id FROM packages WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, packageID).Scan(&locked)
		if db.IsNoRows(err) || db.IsInvalidInput(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := conn.Exec(ctx, `DELETE FROM package_prices WHERE package_id = $1`, packageID); err != nil {
			return err
		}
		const ins = `
INSERT INTO package_prices (package_id, vehicle_type, season_id, price)
VALUES ($1, $2, $3, CAST($4 AS numeric))
`
		for _, p := range prices {
			_, err := conn.Exec(ctx, ins, packageID, p.VehicleType, p.SeasonID, p.Price.String())
			if db.IsForeignKeyViolation(err) || db.IsInvalidInput(err) {
				return ErrUnknownReference
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// PriceFor returns the active package's price for a vehicle in a season. A nil seasonID selects
// the season-less row. ok is false when no such row exists.
func (r *Repository) PriceFor(ctx context.Context, packageID, vehicleType string, seasonID *string) (decimal.Decimal, bool, error) {
	const q = `
SELECT pp.price::text
FROM package_prices pp
JOIN packages p ON p.id = pp.package_id
WHERE pp.package_id = $1 AND pp.vehicle_type = $2 AND pp.season_id IS NOT DISTINCT FROM $3::uuid
  AND p.is_active AND p.deleted_at IS NULL
`
	var amount string
	err := db.Conn(ctx, r.db).QueryRow(ctx, q, packageID, vehicleType, seasonID).Scan(&amount)
	if db.IsNoRows(err) || db.IsInvalidInput(err) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	d, err := decimal.NewFromString(amount)
	return d, err == nil, err
}
