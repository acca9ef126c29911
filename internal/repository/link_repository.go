package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mkorchagin/shortlink/internal/models"
)

type LinkRepository struct {
	db *sql.DB
}

func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation (error code 23505). The store's unique index on short_code is the
// final arbiter for code collisions; callers treat this error as a detected
// collision.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (r *LinkRepository) Save(ctx context.Context, link *models.Link) error {
	query := `
        INSERT INTO links (original_url, short_code, owner_id, is_permanent, created_at, expires_at, last_accessed, clicks)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	row := r.db.QueryRowContext(ctx, query,
		link.OriginalURL,
		link.ShortCode,
		nullInt64(link.OwnerID),
		link.IsPermanent,
		link.CreatedAt,
		nullTime(link.ExpiresAt),
		link.LastAccessed,
		link.Clicks,
	)
	if err := row.Scan(&link.ID); err != nil {
		return err
	}
	return nil
}

func (r *LinkRepository) FindByShortCode(ctx context.Context, shortCode string) (*models.Link, error) {
	query := `
        SELECT id, original_url, short_code, owner_id, is_permanent, created_at, expires_at, last_accessed, clicks
        FROM links
        WHERE short_code = $1
    `
	return r.scanLink(r.db.QueryRowContext(ctx, query, shortCode))
}

func (r *LinkRepository) ExistsByShortCode(ctx context.Context, shortCode string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM links WHERE short_code = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, shortCode).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *LinkRepository) UpdateURL(ctx context.Context, shortCode, newURL string) (*models.Link, error) {
	query := `
        UPDATE links SET original_url = $2
        WHERE short_code = $1
        RETURNING id, original_url, short_code, owner_id, is_permanent, created_at, expires_at, last_accessed, clicks
    `
	return r.scanLink(r.db.QueryRowContext(ctx, query, shortCode, newURL))
}

func (r *LinkRepository) UpdateExpiry(ctx context.Context, shortCode string, expiresAt time.Time) (*models.Link, error) {
	query := `
        UPDATE links SET expires_at = $2, is_permanent = FALSE
        WHERE short_code = $1
        RETURNING id, original_url, short_code, owner_id, is_permanent, created_at, expires_at, last_accessed, clicks
    `
	return r.scanLink(r.db.QueryRowContext(ctx, query, shortCode, expiresAt))
}

func (r *LinkRepository) DeleteByShortCode(ctx context.Context, shortCode string) (*models.Link, error) {
	query := `
        DELETE FROM links
        WHERE short_code = $1
        RETURNING id, original_url, short_code, owner_id, is_permanent, created_at, expires_at, last_accessed, clicks
    `
	return r.scanLink(r.db.QueryRowContext(ctx, query, shortCode))
}

// RecordAccess increments the click counter and refreshes last_accessed in a
// single atomic statement. A record that vanished between resolution and this
// write (sweeper race) is a silent no-op, never an error.
func (r *LinkRepository) RecordAccess(ctx context.Context, shortCode string, accessedAt time.Time) error {
	query := `UPDATE links SET clicks = clicks + 1, last_accessed = $2 WHERE short_code = $1`
	_, err := r.db.ExecContext(ctx, query, shortCode, accessedAt)
	return err
}

// SweepExpired deletes, in one transaction, every temporary link whose expiry
// has passed together with every link not accessed within the past 7 days.
// Returns the number of rows removed.
func (r *LinkRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin sweep tx: %w", err)
	}
	defer tx.Rollback()

	query := `
        DELETE FROM links
        WHERE (is_permanent = FALSE AND expires_at < $1)
           OR last_accessed < $2
    `
	res, err := tx.ExecContext(ctx, query, now, now.Add(-inactivityWindow))
	if err != nil {
		return 0, fmt.Errorf("sweep delete: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sweep tx: %w", err)
	}
	return deleted, nil
}

const inactivityWindow = 7 * 24 * time.Hour

func (r *LinkRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Link, error) {
	query := `
        SELECT id, original_url, short_code, owner_id, is_permanent, created_at, expires_at, last_accessed, clicks
        FROM links
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var link models.Link
		var owner sql.NullInt64
		var expiresAt sql.NullTime
		if err := rows.Scan(&link.ID, &link.OriginalURL, &link.ShortCode, &owner, &link.IsPermanent,
			&link.CreatedAt, &expiresAt, &link.LastAccessed, &link.Clicks); err != nil {
			return nil, err
		}
		if owner.Valid {
			link.OwnerID = &owner.Int64
		}
		if expiresAt.Valid {
			link.ExpiresAt = &expiresAt.Time
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// scanLink reads a full link row. Returns (nil, nil) when the row is absent,
// matching FindByShortCode's not-found contract.
func (r *LinkRepository) scanLink(row *sql.Row) (*models.Link, error) {
	var link models.Link
	var ownerID sql.NullInt64
	var expiresAt sql.NullTime
	err := row.Scan(&link.ID, &link.OriginalURL, &link.ShortCode, &ownerID, &link.IsPermanent,
		&link.CreatedAt, &expiresAt, &link.LastAccessed, &link.Clicks)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if ownerID.Valid {
		link.OwnerID = &ownerID.Int64
	}
	if expiresAt.Valid {
		link.ExpiresAt = &expiresAt.Time
	}
	return &link, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
