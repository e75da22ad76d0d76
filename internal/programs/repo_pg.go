package programs

import (
	"context"
	"database/sql"
	"errors"
)

// Queryer is satisfied by *sql.DB and *sql.Tx.
type Queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetByID returns a program by id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Program, error) {
	return Get(ctx, r.DB, id)
}

// Get reads a program through q.
func Get(ctx context.Context, q Queryer, id string) (Program, error) {
	const query = `
SELECT id, title, description, target_days, status, created_at, updated_at
FROM programs
WHERE id = $1`
	var p Program
	err := q.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.TargetDays,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Program{}, ErrNotFound
		}
		return Program{}, err
	}
	return p, nil
}
