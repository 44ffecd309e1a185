package contact

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/pkg/db"
)

var ErrNotFound = errors.New("contact message not found")

type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Handled   bool      `json:"handled"`
	CreatedAt time.Time `json:"createdAt"`
}

// Input is the public contact form. Either an e-mail or a phone number is needed to reply.
type Input struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required_without=Phone,omitempty,email,max=200"`
	Phone   string `json:"phone" validate:"required_without=Email,omitempty,min=7,max=20"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (in Input) normalize() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	return in
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const columns = `id, name, email, phone, subject, message, handled, created_at`

func scan(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Subject, &m.Message, &m.Handled, &m.CreatedAt)
	return m, err
}

func (r *Repository) Create(ctx context.Context, in Input) (Message, error) {
	in = in.normalize()
	q := `
INSERT INTO contact_messages (name, email, phone, subject, message)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + columns
	return scan(db.Conn(ctx, r.db).QueryRow(ctx, q, in.Name, in.Email, in.Phone, in.Subject, in.Message))
}

// List returns newest first. A nil handled returns every message.
func (r *Repository) List(ctx context.Context, handled *bool, limit int) ([]Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `
SELECT ` + columns + `
FROM contact_messages
WHERE ($1::boolean IS NULL OR handled = $1)
ORDER BY created_at DESC
LIMIT $2`
	rows, err := db.Conn(ctx, r.db).Query(ctx, q, handled, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) SetHandled(ctx context.Context, id string, handled bool) (Message, error) {
	q := `UPDATE contact_messages SET handled = $2 WHERE id = $1 RETURNING ` + columns
	m, err := scan(db.Conn(ctx, r.db).QueryRow(ctx, q, id, handled))
	if db.IsNoRows(err) || db.IsInvalidInput(err) {
		return Message{}, ErrNotFound
	}
	return m, err
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := db.Conn(ctx, r.db).Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	switch {
	case db.IsInvalidInput(err):
		return ErrNotFound
	case err != nil:
		return err
	case tag.RowsAffected() == 0:
		return ErrNotFound
	}
	return nil
}
