package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"healthdash/internal/domain"
)

// GetGrant returns the user's access grant, or nil if the user never answered.
func (d *DB) GetGrant(ctx context.Context, userID int64) (*domain.AccessGrant, error) {
	g := domain.AccessGrant{UserID: userID}
	err := d.sql.QueryRowContext(ctx,
		"SELECT can_read, can_share, updated_at FROM access_grants WHERE user_id = $1",
		userID,
	).Scan(&g.Read, &g.Share, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// SaveGrant upserts the user's access grant.
func (d *DB) SaveGrant(ctx context.Context, userID int64, read, share bool) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO access_grants (user_id, can_read, can_share, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET can_read = EXCLUDED.can_read, can_share = EXCLUDED.can_share, updated_at = EXCLUDED.updated_at`,
		userID, read, share, time.Now().UTC(),
	)
	return err
}
