package wizard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/pkg/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, d Draft) error {
	data, err := json.Marshal(d.Data)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO booking_drafts (id, step, data, expires_at, created_at, updated_at)
VALUES ($1, $2, CAST($3 AS jsonb), $4, $5, $6)
`
	_, err = db.Conn(ctx, r.db).Exec(ctx, q, d.ID, string(d.Step), string(data), d.ExpiresAt, d.CreatedAt, d.UpdatedAt)
	return err
}

func (r *Repository) Get(ctx context.Context, id string) (Draft, error) {
	const q = `
SELECT id, step, data, submitted_booking_id::text, expires_at, created_at, updated_at
FROM booking_drafts
WHERE id = $1
`
	var (
		d    Draft
		data []byte
	)
	err := db.Conn(ctx, r.db).QueryRow(ctx, q, id).Scan(&d.ID, &d.Step, &data, &d.SubmittedBookingID, &d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt)
	if db.IsNoRows(err) || db.IsInvalidInput(err) {
		return Draft{}, ErrNotFound
	}
	if err != nil {
		return Draft{}, err
	}
	if err := json.Unmarshal(data, &d.Data); err != nil {
		return Draft{}, err
	}
	return d, nil
}

func (r *Repository) Update(ctx context.Context, d Draft) error {
	data, err := json.Marshal(d.Data)
	if err != nil {
		return err
	}
	const q = `
UPDATE booking_drafts
SET step = $2, data = CAST($3 AS jsonb), submitted_booking_id = $4, expires_at = $5, updated_at = $6
WHERE id = $1
`
	tag, err := db.Conn(ctx, r.db).Exec(ctx, q, d.ID, string(d.Step), string(data), d.SubmittedBookingID, d.ExpiresAt, d.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes unsubmitted drafts that expired before the cutoff.
func (r *Repository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM booking_drafts WHERE submitted_booking_id IS NULL AND expires_at < @cutoff`
	tag, err := db.Conn(ctx, r.db).Exec(ctx, q, pgx.NamedArgs{"cutoff": cutoff})
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
