package availability

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/internal/civil"
	"taxibooking/pkg/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const dayColumns = `date, cars_booked, is_blocked, note, source, updated_at`

func scanDay(row pgx.Row) (Day, error) {
	var d Day
	err := row.Scan(&d.Date.Time, &d.CarsBooked, &d.IsBlocked, &d.Note, &d.Source, &d.UpdatedAt)
	return d, err
}

// Range returns the stored rows between from and to, inclusive. Dates without a row are omitted.
func (r *Repository) Range(ctx context.Context, from, to civil.Date) ([]Day, error) {
	q := `SELECT ` + dayColumns + ` FROM availability_days WHERE date BETWEEN $1 AND $2 ORDER BY date`
	rows, err := db.Conn(ctx, r.db).Query(ctx, q, from.Time, to.Time)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Day
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Get returns the row for date, or a zero Day when none is stored.
func (r *Repository) Get(ctx context.Context, date civil.Date) (Day, error) {
	q := `SELECT ` + dayColumns + ` FROM availability_days WHERE date = $1`
	d, err := scanDay(db.Conn(ctx, r.db).QueryRow(ctx, q, date.Time))
	if db.IsNoRows(err) {
		return Day{Date: date}, nil
	}
	return d, err
}

// Lock makes sure a row exists for date and locks it until the surrounding transaction ends.
// Concurrent bookings for the same date serialize here.
func (r *Repository) Lock(ctx context.Context, date civil.Date) (Day, error) {
	conn := db.Conn(ctx, r.db)
	const ensure = `INSERT INTO availability_days (date, source) VALUES ($1, 'booking') ON CONFLICT (date) DO NOTHING`
	if _, err := conn.Exec(ctx, ensure, date.Time); err != nil {
		return Day{}, err
	}
	q := `SELECT ` + dayColumns + ` FROM availability_days WHERE date = $1 FOR UPDATE`
	return scanDay(conn.QueryRow(ctx, q, date.Time))
}

// AdjustBooked adds delta to cars_booked, never going below zero.
func (r *Repository) AdjustBooked(ctx context.Context, date civil.Date, delta int) (Day, error) {
	q := `
INSERT INTO availability_days (date, cars_booked, source)
VALUES ($1, GREATEST($2, 0), 'booking')
ON CONFLICT (date) DO UPDATE SET
  cars_booked = GREATEST(availability_days.cars_booked + $2, 0),
  updated_at = NOW()
RETURNING ` + dayColumns
	return scanDay(db.Conn(ctx, r.db).QueryRow(ctx, q, date.Time, delta))
}

func (r *Repository) Save(ctx context.Context, d Day) (Day, error) {
	q := `
INSERT INTO availability_days (date, cars_booked, is_blocked, note, source)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (date) DO UPDATE SET
  cars_booked = EXCLUDED.cars_booked,
  is_blocked = EXCLUDED.is_blocked,
  note = EXCLUDED.note,
  source = EXCLUDED.source,
  updated_at = NOW()
RETURNING ` + dayColumns
	return scanDay(db.Conn(ctx, r.db).QueryRow(ctx, q, d.Date.Time, d.CarsBooked, d.IsBlocked, d.Note, d.Source))
}

// Sync upserts patches by date. It must run inside a transaction.
func (r *Repository) Sync(ctx context.Context, patches []Patch) (SyncResult, error) {
	var res SyncResult
	conn := db.Conn(ctx, r.db)
	q := `SELECT ` + dayColumns + ` FROM availability_days WHERE date = $1 FOR UPDATE`
	for _, p := range patches {
		date, err := civil.Parse(p.Date)
		if err != nil {
			return SyncResult{}, err
		}
		existing, err := scanDay(conn.QueryRow(ctx, q, date.Time))
		switch {
		case db.IsNoRows(err):
			d, _ := p.Apply(Day{Date: date})
			d.Source = "sync"
			if _, err := r.Save(ctx, d); err != nil {
				return SyncResult{}, err
			}
			res.Inserted++
		case err != nil:
			return SyncResult{}, err
		default:
			d, changed := p.Apply(existing)
			if !changed {
				res.Unchanged++
				continue
			}
			d.Source = "sync"
			if _, err := r.Save(ctx, d); err != nil {
				return SyncResult{}, err
			}
			res.Updated++
		}
	}
	return res, nil
}
