package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo persists call history via database/sql (pgx stdlib driver).
//
// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE calls (
//	  call_id          TEXT PRIMARY KEY,
//	  workspace_id     TEXT NOT NULL,
//	  provider_call_id TEXT NOT NULL DEFAULT '',
//	  from_number      TEXT NOT NULL,
//	  to_number        TEXT NOT NULL,
//	  status           TEXT NOT NULL,
//	  reason           TEXT NOT NULL DEFAULT '',
//	  started_at       TIMESTAMPTZ NOT NULL,
//	  ended_at         TIMESTAMPTZ,
//	  created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
//	  updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, c Call) error {
	const q = `
INSERT INTO calls (call_id, workspace_id, provider_call_id, from_number, to_number, status, reason, started_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
`
	_, err := r.db.ExecContext(ctx, q,
		c.CallID,
		c.WorkspaceID,
		c.ProviderCallID,
		c.From,
		c.To,
		c.Status,
		c.Reason,
		c.StartedAt,
	)
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, workspaceID, callID string) (Call, error) {
	const q = `
SELECT call_id, workspace_id, provider_call_id, from_number, to_number, status, reason, started_at, ended_at, created_at, updated_at
FROM calls
WHERE workspace_id = $1 AND call_id = $2
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, workspaceID, callID))
}

func (r *PostgresRepo) GetByCallID(ctx context.Context, callID string) (Call, error) {
	const q = `
SELECT call_id, workspace_id, provider_call_id, from_number, to_number, status, reason, started_at, ended_at, created_at, updated_at
FROM calls
WHERE call_id = $1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, callID))
}

// ListCalls returns workspace-scoped history rows started inside the window.
// It satisfies the reporting data-source contract.
func (r *PostgresRepo) ListCalls(ctx context.Context, workspaceID string, from, to time.Time) ([]Call, error) {
	const q = `
SELECT call_id, workspace_id, provider_call_id, from_number, to_number, status, reason, started_at, ended_at, created_at, updated_at
FROM calls
WHERE workspace_id = $1 AND started_at >= $2 AND started_at <= $3
ORDER BY started_at
`
	rows, err := r.db.QueryContext(ctx, q, workspaceID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Call
	for rows.Next() {
		var c Call
		var endedAt sql.NullTime
		if err := rows.Scan(
			&c.CallID,
			&c.WorkspaceID,
			&c.ProviderCallID,
			&c.From,
			&c.To,
			&c.Status,
			&c.Reason,
			&c.StartedAt,
			&endedAt,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if endedAt.Valid {
			t := endedAt.Time
			c.EndedAt = &t
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, callID string, status CallStatus, reason string, endedAt *time.Time) error {
	const q = `
UPDATE calls
SET status = $2,
    reason = CASE WHEN $3 = '' THEN reason ELSE $3 END,
    ended_at = COALESCE($4, ended_at),
    updated_at = now()
WHERE call_id = $1
`
	res, err := r.db.ExecContext(ctx, q, callID, status, reason, endedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) scanOne(row *sql.Row) (Call, error) {
	var c Call
	var endedAt sql.NullTime
	if err := row.Scan(
		&c.CallID,
		&c.WorkspaceID,
		&c.ProviderCallID,
		&c.From,
		&c.To,
		&c.Status,
		&c.Reason,
		&c.StartedAt,
		&endedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		c.EndedAt = &t
	}
	return c, nil
}
