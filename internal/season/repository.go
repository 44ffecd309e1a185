package season

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/internal/civil"
	"taxibooking/pkg/db"
)

var ErrNotFound = errors.New("season not found")

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const selectSeason = `
SELECT id, name, start_date, end_date, recurring, priority, is_active, created_at, updated_at
FROM seasons
`

func scanSeason(row pgx.Row) (Season, error) {
	var s Season
	err := row.Scan(&s.ID, &s.Name, &s.StartDate.Time, &s.EndDate.Time, &s.Recurring, &s.Priority, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *Repository) List(ctx context.Context, includeInactive bool) ([]Season, error) {
	q := selectSeason + `WHERE deleted_at IS NULL AND ($1 OR is_active) ORDER BY start_date, name`
	rows, err := db.Conn(ctx, r.db).Query(ctx, q, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Season
	for rows.Next() {
		s, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ForDate resolves the season covering d among active seasons. It returns nil when none does.
func (r *Repository) ForDate(ctx context.Context, d civil.Date) (*Season, error) {
	all, err := r.List(ctx, false)
	if err != nil {
		return nil, err
	}
	return Resolve(d, all), nil
}

func (r *Repository) Get(ctx context.Context, id string) (Season, error) {
	s, err := scanSeason(db.Conn(ctx, r.db).QueryRow(ctx, selectSeason+`WHERE id = $1 AND deleted_at IS NULL`, id))
	if db.IsNoRows(err) || db.IsInvalidInput(err) {
		return Season{}, ErrNotFound
	}
	return s, err
}

func (r *Repository) Create(ctx context.Context, s Season) (Season, error) {
	const q = `
INSERT INTO seasons (name, start_date, end_date, recurring, priority, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, name, start_date, end_date, recurring, priority, is_active, created_at, updated_at
`
	return scanSeason(db.Conn(ctx, r.db).QueryRow(ctx, q, s.Name, s.StartDate.Time, s.EndDate.Time, s.Recurring, s.Priority, s.IsActive))
}

func (r *Repository) Update(ctx context.Context, id string, s Season) (Season, error) {
	const q = `
UPDATE seasons
SET name = $2, start_date = $3, end_date = $4, recurring = $5, priority = $6, is_active = $7, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
RETURNING id, name, start_date, end_date, recurring, priority, is_active, created_at, updated_at
`
	out, err := scanSeason(db.Conn(ctx, r.db).QueryRow(ctx, q, id, s.Name, s.StartDate.Time, s.EndDate.Time, s.Recurring, s.Priority, s.IsActive))
	if db.IsNoRows(err) || db.IsInvalidInput(err) {
		return Season{}, ErrNotFound
	}
	return out, err
}

// Delete soft-deletes by default; hard removes the row and its season-specific prices.
func (r *Repository) Delete(ctx context.Context, id string, hard bool) error {
	q := `UPDATE seasons SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	if hard {
		q = `DELETE FROM seasons WHERE id = $1`
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
