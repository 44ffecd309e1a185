package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"taxibooking/pkg/db"
)

type Entry struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entityId,omitempty"`
	Actor     string          `json:"actor"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Record writes an audit row on the transaction carried by ctx, if any.
func (r *Repository) Record(ctx context.Context, action, entity, entityID, actor string, metadata any) error {
	return Insert(ctx, db.Conn(ctx, r.db), action, entity, entityID, actor, metadata)
}

func Insert(ctx context.Context, q db.DBTX, action, entity, entityID, actor string, metadata any) error {
	var s *string
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		str := string(b)
		s = &str
	}
	const stmt = `
INSERT INTO audit_logs (action, entity, entity_id, actor, metadata)
VALUES ($1, $2, $3, $4, CAST($5 AS jsonb))
`
	_, err := q.Exec(ctx, stmt, action, entity, entityID, actor, s)
	return err
}

func (r *Repository) List(ctx context.Context, entity string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `
SELECT id, action, entity, entity_id, actor, COALESCE(metadata, '{}'::jsonb), created_at::text
FROM audit_logs
WHERE ($1 = '' OR entity = $1)
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.Query(ctx, q, entity, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.Entity, &e.EntityID, &e.Actor, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
