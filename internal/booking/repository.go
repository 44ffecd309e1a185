package booking

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"taxibooking/pkg/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const columns = `id, reference, package_id::text, route_id::text, vehicle_type, travel_date, pickup_time, pickup_location,
  drop_location, passengers, customer_name, customer_phone, customer_email, notes, season_name, price::text, currency,
  status, idempotency_key, request_hash, created_at, updated_at`

func scan(row pgx.Row) (Booking, error) {
	var (
		b                  Booking
		packageID, routeID *string
		price              string
	)
	err := row.Scan(&b.ID, &b.Reference, &packageID, &routeID, &b.VehicleType, &b.TravelDate.Time, &b.PickupTime,
		&b.PickupLocation, &b.DropLocation, &b.Passengers, &b.CustomerName, &b.CustomerPhone, &b.CustomerEmail, &b.Notes,
		&b.SeasonName, &price, &b.Currency, &b.Status, &b.IdempotencyKey, &b.RequestHash, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return Booking{}, err
	}
	if packageID != nil {
		b.PackageID = *packageID
	}
	if routeID != nil {
		b.RouteID = *routeID
	}
	b.Price, err = decimal.NewFromString(price)
	return b, err
}

func (r *Repository) FindByIdempotencyKey(ctx context.Context, key string) (*Booking, error) {
	b, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, `SELECT `+columns+` FROM bookings WHERE idempotency_key = $1`, key))
	if db.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *Repository) Insert(ctx context.Context, b Booking) error {
	const q = `
INSERT INTO bookings (id, reference, package_id, route_id, vehicle_type, travel_date, pickup_time, pickup_location,
  drop_location, passengers, customer_name, customer_phone, customer_email, notes, season_name, price, currency,
  status, idempotency_key, request_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, CAST($16 AS numeric), $17, $18, $19, $20, $21, $22)
`
	_, err := db.Conn(ctx, r.db).Exec(ctx, q, b.ID, b.Reference, nullable(b.PackageID), nullable(b.RouteID), b.VehicleType,
		b.TravelDate.Time, b.PickupTime, b.PickupLocation, b.DropLocation, b.Passengers, b.CustomerName, b.CustomerPhone,
		b.CustomerEmail, b.Notes, b.SeasonName, b.Price.String(), b.Currency, string(b.Status), b.IdempotencyKey,
		b.RequestHash, b.CreatedAt, b.UpdatedAt)
	if db.IsUniqueViolation(err) && db.ConstraintName(err) == "bookings_idempotency_key_key" {
		return ErrDuplicateKey
	}
	return err
}

func (r *Repository) Get(ctx context.Context, id string) (Booking, error) {
	b, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, `SELECT `+columns+` FROM bookings WHERE id = $1`, id))
	if db.IsNoRows(err) || db.IsInvalidInput(err) {
		return Booking{}, ErrNotFound
	}
	return b, err
}

func (r *Repository) GetForUpdate(ctx context.Context, id string) (Booking, error) {
	b, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, `SELECT `+columns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
	if db.IsNoRows(err) || db.IsInvalidInput(err) {
		return Booking{}, ErrNotFound
	}
	return b, err
}

func (r *Repository) GetByReference(ctx context.Context, reference string) (Booking, error) {
	b, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, `SELECT `+columns+` FROM bookings WHERE reference = $1`, strings.ToUpper(reference)))
	if db.IsNoRows(err) {
		return Booking{}, ErrNotFound
	}
	return b, err
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Booking, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	var from, to any
	if f.From != nil {
		from = f.From.Time
	}
	if f.To != nil {
		to = f.To.Time
	}
	q := `SELECT ` + columns + `
FROM bookings
WHERE ($1 = '' OR status = $1)
  AND ($2::date IS NULL OR travel_date >= $2::date)
  AND ($3::date IS NULL OR travel_date <= $3::date)
ORDER BY travel_date, created_at
LIMIT $4`
	rows, err := db.Conn(ctx, r.db).Query(ctx, q, string(f.Status), from, to, f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, b Booking) error {
	const q = `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := db.Conn(ctx, r.db).Exec(ctx, q, b.ID, string(b.Status), b.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) InsertEvent(ctx context.Context, e Event) error {
	var data *string
	if len(e.Data) > 0 {
		s := string(e.Data)
		data = &s
	}
	const q = `
INSERT INTO booking_events (booking_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err := db.Conn(ctx, r.db).Exec(ctx, q, e.BookingID, e.EventType, e.Summary, e.Actor, e.OccurredAt, data)
	return err
}

func (r *Repository) ListEvents(ctx context.Context, bookingID string) ([]Event, error) {
	const q = `
SELECT id, booking_id, event_type, summary, actor, occurred_at, COALESCE(data, '{}'::jsonb)
FROM booking_events
WHERE booking_id = $1
ORDER BY occurred_at ASC, created_at ASC
`
	rows, err := db.Conn(ctx, r.db).Query(ctx, q, bookingID)
	if db.IsInvalidInput(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var data []byte
		if err := rows.Scan(&e.ID, &e.BookingID, &e.EventType, &e.Summary, &e.Actor, &e.OccurredAt, &data); err != nil {
			return nil, err
		}
		e.Data = data
		out = append(out, e)
	}
	return out, rows.Err()
}
