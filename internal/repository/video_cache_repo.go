package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VideoCacheRepo is the durable tier of the YouTube search cache. Rows are
// append-only per (query, max_results); Latest picks the newest entry and
// Prune keeps the table bounded.
type VideoCacheRepo struct {
	pool *pgxpool.Pool
}

func NewVideoCacheRepo(pool *pgxpool.Pool) *VideoCacheRepo {
	return &VideoCacheRepo{pool: pool}
}

// Latest returns the newest cached results for this search, or nil when the
// search was never cached.
func (r *VideoCacheRepo) Latest(ctx context.Context, query string, maxResults int) (json.RawMessage, time.Time, error) {
	var results json.RawMessage
	var createdAt time.Time

	err := r.pool.QueryRow(ctx,
		`SELECT results, created_at FROM youtube_cache
		 WHERE query = $1 AND max_results = $2
		 ORDER BY created_at DESC LIMIT 1`,
		query, maxResults,
	).Scan(&results, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	return results, createdAt, nil
}

func (r *VideoCacheRepo) Insert(ctx context.Context, query string, maxResults int, results json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		"INSERT INTO youtube_cache (query, max_results, results) VALUES ($1, $2, $3)",
		query, maxResults, results,
	)
	return err
}

// Prune deletes the oldest rows above maxRows and reports how many went.
func (r *VideoCacheRepo) Prune(ctx context.Context, maxRows int) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM youtube_cache WHERE id IN (
			SELECT id FROM youtube_cache ORDER BY created_at DESC
			OFFSET GREATEST($1, 0)
		)`, maxRows,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// PurgeOlderThan deletes rows created before the cutoff.
func (r *VideoCacheRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM youtube_cache WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Count returns the total number of cached rows.
func (r *VideoCacheRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM youtube_cache").Scan(&n)
	return n, err
}
