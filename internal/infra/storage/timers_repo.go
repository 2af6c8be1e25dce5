package storage

import (
	"context"
	"database/sql"
	"time"
)

type TimersRepo struct{ db *sql.DB }

func NewTimersRepo(db *sql.DB) *TimersRepo { return &TimersRepo{db: db} }

func (r *TimersRepo) Create(ctx context.Context, event string, payload []byte, expires time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO timers (event, payload, expires)
VALUES ($1, $2::jsonb, $3)
RETURNING id
`, event, payload, expires).Scan(&id)
	return id, err
}

// NextDue devuelve el timer más próximo (sql.ErrNoRows si no hay ninguno).
func (r *TimersRepo) NextDue(ctx context.Context) (Timer, error) {
	var t Timer
	err := r.db.QueryRowContext(ctx, `
SELECT id, event, payload, expires, created_at
  FROM timers
 ORDER BY expires ASC
 LIMIT 1
`).Scan(&t.ID, &t.Event, &t.Payload, &t.Expires, &t.CreatedAt)
	return t, err
}

// Due lista los timers ya vencidos a `now`, más viejos primero.
func (r *TimersRepo) Due(ctx context.Context, now time.Time, limit int) ([]Timer, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, event, payload, expires, created_at
  FROM timers
 WHERE expires <= $1
 ORDER BY expires ASC
 LIMIT $2
`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Timer
	for rows.Next() {
		var t Timer
		if err := rows.Scan(&t.ID, &t.Event, &t.Payload, &t.Expires, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TimersRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timers WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
