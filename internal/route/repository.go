package route

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"taxibooking/pkg/db"
)

var (
	ErrNotFound       = errors.New("route not found")
	ErrSlugTaken      = errors.New("route slug already exists")
	ErrUnknownVehicle = errors.New("rate references an unknown vehicle type")
)

// Route is a point-to-point transfer priced per vehicle type.
type Route struct {
	ID            string          `json:"id"`
	Slug          string          `json:"slug"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	DistanceKM    decimal.Decimal `json:"distanceKm"`
	DurationHours decimal.Decimal `json:"durationHours"`
	IsActive      bool            `json:"isActive"`
	SortOrder     int             `json:"sortOrder"`
	Rates         []Rate          `json:"rates,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type Rate struct {
	VehicleType string          `json:"vehicleType" validate:"required,slug"`
	Price       decimal.Decimal `json:"price"`
}

type Input struct {
	Slug          string          `json:"slug" validate:"required,slug,max=80"`
	Origin        string          `json:"origin" validate:"required,max=120"`
	Destination   string          `json:"destination" validate:"required,max=120"`
	DistanceKM    decimal.Decimal `json:"distanceKm"`
	DurationHours decimal.Decimal `json:"durationHours"`
	IsActive      *bool           `json:"isActive"`
	SortOrder     int             `json:"sortOrder"`
}

type RatesRequest struct {
	Rates []Rate `json:"rates" validate:"max=50,dive"`
}

// ValidateRates requires positive prices with at most two decimals and one rate per vehicle.
func ValidateRates(rates []Rate) map[string]string {
	seen := map[string]bool{}
	for _, rt := range rates {
		switch {
		case rt.Price.LessThanOrEqual(decimal.Zero):
			return map[string]string{rt.VehicleType: "price must be > 0"}
		case !rt.Price.Equal(rt.Price.Round(2)):
			return map[string]string{rt.VehicleType: "price must have at most 2 decimals"}
		case seen[rt.VehicleType]:
			return map[string]string{rt.VehicleType: "duplicate rate"}
		}
		seen[rt.VehicleType] = true
	}
	return nil
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const columns = `id, slug, origin, destination, distance_km::text, duration_hours::text, is_active, sort_order, created_at, updated_at`

func scan(row pgx.Row) (Route, error) {
	var rt Route
	var distance, duration string
	if err := row.Scan(&rt.ID, &rt.Slug, &rt.Origin, &rt.Destination, &distance, &duration, &rt.IsActive, &rt.SortOrder, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return Route{}, err
	}
	rt.DistanceKM, _ = decimal.NewFromString(distance)
	rt.DurationHours, _ = decimal.NewFromString(duration)
	return rt, nil
}

func (r *Repository) List(ctx context.Context, includeInactive bool) ([]Route, error) {
	q := `SELECT ` + columns + ` FROM routes WHERE deleted_at IS NULL AND ($1 OR is_active) ORDER BY sort_order, origin, destination`
	rows, err := db.Conn(ctx, r.db).Query(ctx, q, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Route
	for rows.Next() {
		rt, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Rates, err = r.Rates(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) GetActiveBySlug(ctx context.Context, slug string) (Route, error) {
	q := `SELECT ` + columns + ` FROM routes WHERE slug = $1 AND is_active AND deleted_at IS NULL`
	rt, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, slug))
	if db.IsNoRows(err) {
		return Route{}, ErrNotFound
	}
	if err != nil {
		return Route{}, err
	}
	rt.Rates, err = r.Rates(ctx, rt.ID)
	return rt, err
}

func (r *Repository) Get(ctx context.Context, id string) (Route, error) {
	q := `SELECT ` + columns + ` FROM routes WHERE id = $1 AND deleted_at IS NULL`
	rt, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, id))
	if db.IsNoRows(err) || db.IsInvalidInput(err) {
		return Route{}, ErrNotFound
	}
	if err != nil {
		return Route{}, err
	}
	rt.Rates, err = r.Rates(ctx, rt.ID)
	return rt, err
}

func (r *Repository) Create(ctx context.Context, in Input) (Route, error) {
	q := `
INSERT INTO routes (slug, origin, destination, distance_km, duration_hours, is_active, sort_order)
VALUES ($1, $2, $3, CAST($4 AS numeric), CAST($5 AS numeric), $6, $7)
RETURNING ` + columns
	rt, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, in.Slug, in.Origin, in.Destination,
		in.DistanceKM.String(), in.DurationHours.String(), in.IsActive == nil || *in.IsActive, in.SortOrder))
	if db.IsUniqueViolation(err) {
		return Route{}, ErrSlugTaken
	}
	return rt, err
}

func (r *Repository) Update(ctx context.Context, id string, in Input) (Route, error) {
	q := `
UPDATE routes
SET slug = $2, origin = $3, destination = $4, distance_km = CAST($5 AS numeric), duration_hours = CAST($6 AS numeric),
    is_active = $7, sort_order = $8, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + columns
	rt, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, id, in.Slug, in.Origin, in.Destination,
		in.DistanceKM.String(), in.DurationHours.String(), in.IsActive == nil || *in.IsActive, in.SortOrder))
	switch {
	case db.IsNoRows(err), db.IsInvalidInput(err):
		return Route{}, ErrNotFound
	case db.IsUniqueViolation(err):
		return Route{}, ErrSlugTaken
	}
	return rt, err
}

func (r *Repository) Delete(ctx context.Context, id string, hard bool) error {
	q := `UPDATE routes SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	if hard {
		q = `DELETE FROM routes WHERE id = $1`
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

func (r *Repository) Rates(ctx context.Context, routeID string) ([]Rate, error) {
	const q = `SELECT vehicle_type, price::text FROM route_rates WHERE route_id = $1 ORDER BY price, vehicle_type`
	rows, err := db.Conn(ctx, r.db).Query(ctx, q, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rate
	for rows.Next() {
		var rt Rate
		var amount string
		if err := rows.Scan(&rt.VehicleType, &amount); err != nil {
			return nil, err
		}
		if rt.Price, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// ReplaceRates swaps all rates of a route in one transaction.
func (r *Repository) ReplaceRates(ctx context.Context, routeID string, rates []Rate) error {
	return db.RunInTx(ctx, r.db, func(ctx context.Context) error {
		conn := db.Conn(ctx, r.db)
		var locked string
		err := conn.QueryRow(ctx, `SELECT id FROM routes WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, routeID).Scan(&locked)
		if db.IsNoRows(err) || db.IsInvalidInput(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := conn.Exec(ctx, `DELETE FROM route_rates WHERE route_id = $1`, routeID); err != nil {
			return err
		}
		for _, rt := range rates {
			_, err := conn.Exec(ctx, `INSERT INTO route_rates (route_id, vehicle_type, price) VALUES ($1, $2, CAST($3 AS numeric))`,
				routeID, rt.VehicleType, rt.Price.String())
			if db.IsForeignKeyViolation(err) {
				return ErrUnknownVehicle
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// RateFor returns the active route's rate for vehicleType; ok is false when there is none.
func (r *Repository) RateFor(ctx context.Context, routeID, vehicleType string) (decimal.Decimal, bool, error) {
	const q = `
SELECT rr.price::text
FROM route_rates rr
JOIN routes rt ON rt.id = rr.route_id
WHERE rr.route_id = $1 AND rr.vehicle_type = $2 AND rt.is_active AND rt.deleted_at IS NULL
`
	var amount string
	err := db.Conn(ctx, r.db).QueryRow(ctx, q, routeID, vehicleType).Scan(&amount)
	if db.IsNoRows(err) || db.IsInvalidInput(err) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	d, err := decimal.NewFromString(amount)
	return d, err == nil, err
}
