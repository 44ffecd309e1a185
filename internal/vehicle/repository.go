package vehicle

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/pkg/db"
)

var (
	ErrNotFound  = errors.New("vehicle type not found")
	ErrSlugTaken = errors.New("vehicle slug already exists")
	ErrInUse     = errors.New("vehicle type is referenced by prices or rates")
)

type Vehicle struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Seats     int       `json:"seats"`
	Luggage   int       `json:"luggage"`
	IsActive  bool      `json:"isActive"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Input struct {
	Slug      string `json:"slug" validate:"required,slug,max=40"`
	Name      string `json:"name" validate:"required,max=80"`
	Seats     int    `json:"seats" validate:"required,min=1,max=60"`
	Luggage   int    `json:"luggage" validate:"min=0,max=60"`
	IsActive  *bool  `json:"isActive"`
	SortOrder int    `json:"sortOrder"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const columns = `id, slug, name, seats, luggage, is_active, sort_order, created_at, updated_at`

func scan(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	err := row.Scan(&v.ID, &v.Slug, &v.Name, &v.Seats, &v.Luggage, &v.IsActive, &v.SortOrder, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *Repository) List(ctx context.Context, includeInactive bool) ([]Vehicle, error) {
	q := `SELECT ` + columns + ` FROM vehicle_types WHERE ($1 OR is_active) ORDER BY sort_order, seats, slug`
	rows, err := db.Conn(ctx, r.db).Query(ctx, q, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (Vehicle, error) {
	v, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, `SELECT `+columns+` FROM vehicle_types WHERE slug = $1`, slug))
	if db.IsNoRows(err) {
		return Vehicle{}, ErrNotFound
	}
	return v, err
}

func (r *Repository) Create(ctx context.Context, in Input) (Vehicle, error) {
	q := `
INSERT INTO vehicle_types (slug, name, seats, luggage, is_active, sort_order)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + columns
	v, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, in.Slug, in.Name, in.Seats, in.Luggage, active(in.IsActive), in.SortOrder))
	if db.IsUniqueViolation(err) {
		return Vehicle{}, ErrSlugTaken
	}
	return v, err
}

func (r *Repository) Update(ctx context.Context, id string, in Input) (Vehicle, error) {
	q := `
UPDATE vehicle_types
SET slug = $2, name = $3, seats = $4, luggage = $5, is_active = $6, sort_order = $7, updated_at = NOW()
WHERE id = $1
RETURNING ` + columns
	v, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, id, in.Slug, in.Name, in.Seats, in.Luggage, active(in.IsActive), in.SortOrder))
	switch {
	case db.IsNoRows(err), db.IsInvalidInput(err):
		return Vehicle{}, ErrNotFound
	case db.IsUniqueViolation(err):
		return Vehicle{}, ErrSlugTaken
	}
	return v, err
}

// Delete deactivates the vehicle type; hard removes it unless prices still reference it.
func (r *Repository) Delete(ctx context.Context, id string, hard bool) error {
	q := `UPDATE vehicle_types SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	if hard {
		q = `DELETE FROM vehicle_types WHERE id = $1`
	}
	tag, err := db.Conn(ctx, r.db).Exec(ctx, q, id)
	switch {
	case db.IsInvalidInput(err):
		return ErrNotFound
	case db.IsForeignKeyViolation(err):
		return ErrInUse
	case err != nil:
		return err
	case tag.RowsAffected() == 0:
		return ErrNotFound
	}
	return nil
}

func active(v *bool) bool {
	return v == nil || *v
}
