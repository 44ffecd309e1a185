package temple

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/pkg/db"
)

var (
	ErrNotFound  = errors.New("temple not found")
	ErrSlugTaken = errors.New("temple slug already exists")
)

// Temple is a destination the site lists and packages link to.
type Temple struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Deity       string    `json:"deity"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Timings     string    `json:"timings"`
	IsActive    bool      `json:"isActive"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Input struct {
	Slug        string `json:"slug" validate:"required,slug,max=80"`
	Name        string `json:"name" validate:"required,max=120"`
	Location    string `json:"location" validate:"max=120"`
	Deity       string `json:"deity" validate:"max=120"`
	Description string `json:"description" validate:"max=5000"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
	Timings     string `json:"timings" validate:"max=200"`
	IsActive    *bool  `json:"isActive"`
	SortOrder   int    `json:"sortOrder"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const columns = `id, slug, name, location, deity, description, image_url, timings, is_active, sort_order, created_at, updated_at`

func scan(row pgx.Row) (Temple, error) {
	var t Temple
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Location, &t.Deity, &t.Description, &t.ImageURL, &t.Timings,
		&t.IsActive, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *Repository) List(ctx context.Context, includeInactive bool) ([]Temple, error) {
	q := `SELECT ` + columns + ` FROM temples WHERE deleted_at IS NULL AND ($1 OR is_active) ORDER BY sort_order, name`
	rows, err := db.Conn(ctx, r.db).Query(ctx, q, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Temple
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetActiveBySlug is the public detail lookup; inactive or deleted temples are not found.
func (r *Repository) GetActiveBySlug(ctx context.Context, slug string) (Temple, error) {
	q := `SELECT ` + columns + ` FROM temples WHERE slug = $1 AND is_active AND deleted_at IS NULL`
	t, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, slug))
	if db.IsNoRows(err) {
		return Temple{}, ErrNotFound
	}
	return t, err
}

func (r *Repository) Create(ctx context.Context, in Input) (Temple, error) {
	q := `
INSERT INTO temples (slug, name, location, deity, description, image_url, timings, is_active, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + columns
	t, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, in.Slug, in.Name, in.Location, in.Deity, in.Description,
		in.ImageURL, in.Timings, in.IsActive == nil || *in.IsActive, in.SortOrder))
	if db.IsUniqueViolation(err) {
		return Temple{}, ErrSlugTaken
	}
	return t, err
}

func (r *Repository) Update(ctx context.Context, id string, in Input) (Temple, error) {
	q := `
UPDATE temples
SET slug = $2, name = $3, location = $4, deity = $5, description = $6, image_url = $7, timings = $8,
    is_active = $9, sort_order = $10, updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
RETURNING ` + columns
	t, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, id, in.Slug, in.Name, in.Location, in.Deity, in.Description,
		in.ImageURL, in.Timings, in.IsActive == nil || *in.IsActive, in.SortOrder))
	switch {
	case db.IsNoRows(err), db.IsInvalidInput(err):
		return Temple{}, ErrNotFound
	case db.IsUniqueViolation(err):
		return Temple{}, ErrSlugTaken
	}
	return t, err
}

// Delete soft-deletes by default. A hard delete also drops the temple from package itineraries.
func (r *Repository) Delete(ctx context.Context, id string, hard bool) error {
	return db.RunInTx(ctx, r.db, func(ctx context.Context) error {
		conn := db.Conn(ctx, r.db)
		q := `UPDATE temples SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
		if hard {
			q = `DELETE FROM temples WHERE id = $1`
		}
		tag, err := conn.Exec(ctx, q, id)
		if db.IsInvalidInput(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if hard {
			_, err = conn.Exec(ctx, `UPDATE packages SET temple_ids = array_remove(temple_ids, $1::uuid) WHERE $1::uuid = ANY(temple_ids)`, id)
		}
		return err
	})
}
