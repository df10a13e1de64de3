package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"healthdash/internal/domain"
)

// AddSample inserts a new sample.
func (d *DB) AddSample(ctx context.Context, userID int64, kind domain.MetricKind, value float64, unit string, sampledAt time.Time) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO samples(user_id, kind, value, unit, sampled_at) VALUES($1, $2, $3, $4, $5) RETURNING id;",
		userID, string(kind), value, unit, sampledAt.UTC(),
	).Scan(&id)
	return id, err
}

// DeleteLatestSample removes the user's most recent sample of kind.
func (d *DB) DeleteLatestSample(ctx context.Context, userID int64, kind domain.MetricKind) (bool, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"SELECT id FROM samples WHERE user_id=$1 AND kind=$2 ORDER BY sampled_at DESC, id DESC LIMIT 1;",
		userID, string(kind),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	_, err = d.sql.ExecContext(ctx, "DELETE FROM samples WHERE id=$1 AND user_id=$2;", id, userID)
	return err == nil, err
}

// ListSamples returns the user's samples of kind with from <= sampled_at < to, oldest first.
func (d *DB) ListSamples(ctx context.Context, userID int64, kind domain.MetricKind, from, to time.Time) ([]domain.Sample, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, value, unit, sampled_at FROM samples WHERE user_id=$1 AND kind=$2 AND sampled_at >= $3 AND sampled_at < $4 ORDER BY sampled_at ASC, id ASC;",
		userID, string(kind), from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows, userID, kind, 0)
}

// ListRecentSamples returns the most recent samples of kind up to limit.
func (d *DB) ListRecentSamples(ctx context.Context, userID int64, kind domain.MetricKind, limit int) ([]domain.Sample, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, value, unit, sampled_at FROM samples WHERE user_id=$1 AND kind=$2 ORDER BY sampled_at DESC, id DESC LIMIT $3;",
		userID, string(kind), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows, userID, kind, limit)
}

func scanSamples(rows *sql.Rows, userID int64, kind domain.MetricKind, capacity int) ([]domain.Sample, error) {
	out := make([]domain.Sample, 0, capacity)
	for rows.Next() {
		s := domain.Sample{UserID: userID, Kind: kind}
		if err := rows.Scan(&s.ID, &s.Value, &s.Unit, &s.Date); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
