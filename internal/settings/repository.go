package settings

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/pkg/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context) (Settings, error) {
	const q = `SELECT key, value FROM settings`
	rows, err := db.Conn(ctx, r.db).Query(ctx, q)
	if err != nil {
		return Settings{}, err
	}
	defer rows.Close()

	m := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Settings{}, err
		}
		m[k] = v
	}
	if err := rows.Err(); err != nil {
		return Settings{}, err
	}
	return FromMap(m), nil
}

func (r *Repository) Save(ctx context.Context, changes map[string]string) error {
	const q = `
INSERT INTO settings (key, value)
VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET
  value = EXCLUDED.value,
  updated_at = NOW()
`
	conn := db.Conn(ctx, r.db)
	for k, v := range changes {
		if _, err := conn.Exec(ctx, q, k, v); err != nil {
			return err
		}
	}
	return nil
}
