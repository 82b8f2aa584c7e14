package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"hoopwatch/internal/watchlist"
	"hoopwatch/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

const schema = `
	CREATE TABLE IF NOT EXISTS watchlist_entries (
		id                TEXT PRIMARY KEY,
		owner_id          TEXT NOT NULL,
		subject_key       TEXT NOT NULL,
		added_at          TIMESTAMPTZ NOT NULL,
		last_refreshed_at TIMESTAMPTZ,
		UNIQUE (owner_id, subject_key)
	)`

// EnsureSchema creates the watchlist table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensuring watchlist schema: %w", err)
	}
	return nil
}

// Postgres persists entries in the watchlist_entries table. The (owner_id,
// subject_key) pair carries a unique constraint; duplicate inserts surface as
// sentinel.ErrConflict.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Add(ctx context.Context, entry watchlist.Entry) error {
	const query = `
		INSERT INTO watchlist_entries (id, owner_id, subject_key, added_at, last_refreshed_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := p.db.ExecContext(ctx, query,
		entry.ID, entry.OwnerID, entry.SubjectKey, entry.AddedAt, entry.LastRefreshedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("inserting watchlist entry: %w", err)
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, ownerID, subjectKey string) error {
	const query = `
		DELETE FROM watchlist_entries
		WHERE owner_id = $1 AND subject_key = $2`

	result, err := p.db.ExecContext(ctx, query, ownerID, subjectKey)
	if err != nil {
		return fmt.Errorf("deleting watchlist entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (p *Postgres) Contains(ctx context.Context, ownerID, subjectKey string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM watchlist_entries
			WHERE owner_id = $1 AND subject_key = $2
		)`

	var exists bool
	if err := p.db.QueryRowContext(ctx, query, ownerID, subjectKey).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking watchlist membership: %w", err)
	}
	return exists, nil
}

func (p *Postgres) List(ctx context.Context, ownerID string) ([]watchlist.Entry, error) {
	const query = `
		SELECT id, owner_id, subject_key, added_at, last_refreshed_at
		FROM watchlist_entries
		WHERE owner_id = $1
		ORDER BY added_at, subject_key`

	rows, err := p.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing watchlist entries: %w", err)
	}
	defer rows.Close()

	entries := make([]watchlist.Entry, 0)
	for rows.Next() {
		var entry watchlist.Entry
		var refreshed sql.NullTime
		if err := rows.Scan(&entry.ID, &entry.OwnerID, &entry.SubjectKey, &entry.AddedAt, &refreshed); err != nil {
			return nil, fmt.Errorf("scanning watchlist entry: %w", err)
		}
		if refreshed.Valid {
			t := refreshed.Time
			entry.LastRefreshedAt = &t
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating watchlist entries: %w", err)
	}
	return entries, nil
}

// UpdateLastRefreshed pushes the staleness check into the statement so two
// concurrent refreshes cannot both stamp the row.
func (p *Postgres) UpdateLastRefreshed(ctx context.Context, ownerID, subjectKey string, refreshedAt time.Time, window time.Duration) error {
	const query = `
		UPDATE watchlist_entries
		SET last_refreshed_at = $3
		WHERE owner_id = $1 AND subject_key = $2
		  AND (last_refreshed_at IS NULL OR last_refreshed_at < $4)`

	cutoff := refreshedAt.Add(-window)
	if _, err := p.db.ExecContext(ctx, query, ownerID, subjectKey, refreshedAt, cutoff); err != nil {
		return fmt.Errorf("stamping last refresh: %w", err)
	}
	return nil
}
