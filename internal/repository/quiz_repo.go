package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estudai-backend/internal/models"
)

type WeeklyQuizRepo struct {
	pool *pgxpool.Pool
}

func NewWeeklyQuizRepo(pool *pgxpool.Pool) *WeeklyQuizRepo {
	return &WeeklyQuizRepo{pool: pool}
}

// Get returns the quiz row for (user, week) or nil when none exists yet.
func (r *WeeklyQuizRepo) Get(ctx context.Context, userID int64, weekStart time.Time) (*models.WeeklyQuiz, error) {
	q := &models.WeeklyQuiz{}
	query := `SELECT id, user_id, week_start, status, version, items_json, created_at, updated_at
		FROM weekly_quizzes WHERE user_id = $1 AND week_start = $2`

	err := r.pool.QueryRow(ctx, query, userID, weekStart).Scan(
		&q.ID, &q.UserID, &q.WeekStart, &q.Status, &q.Version, &q.ItemsJSON, &q.CreatedAt, &q.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetLatest returns the user's most recent quiz regardless of week.
func (r *WeeklyQuizRepo) GetLatest(ctx context.Context, userID int64) (*models.WeeklyQuiz, error) {
	q := &models.WeeklyQuiz{}
	query := `SELECT id, user_id, week_start, status, version, items_json, created_at, updated_at
		FROM weekly_quizzes WHERE user_id = $1 ORDER BY week_start DESC LIMIT 1`

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&q.ID, &q.UserID, &q.WeekStart, &q.Status, &q.Version, &q.ItemsJSON, &q.CreatedAt, &q.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// MarkPending creates the week's row in pending state, or resets an existing
// one back to pending for regeneration. Items are left untouched so readers
// can keep serving the previous version while the worker runs.
func (r *WeeklyQuizRepo) MarkPending(ctx context.Context, userID int64, weekStart time.Time) error {
	query := `INSERT INTO weekly_quizzes (user_id, week_start, status, version, items_json)
		VALUES ($1, $2, $3, 1, '[]')
		ON CONFLICT (user_id, week_start)
		DO UPDATE SET status = $3, updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query, userID, weekStart, models.QuizStatusPending)
	return err
}

const saveItemsQuery = `INSERT INTO weekly_quizzes (user_id, week_start, status, version, items_json)
	VALUES ($1, $2, $3, 1, $4)
	ON CONFLICT (user_id, week_start)
	DO UPDATE SET status = $3, items_json = $4, updated_at = NOW()`

// SaveItems stores the generated items and flips the row to ready.
// Regeneration overwrites items in place; the version stays as-is unless a
// caller increments it explicitly.
func (r *WeeklyQuizRepo) SaveItems(ctx context.Context, userID int64, weekStart time.Time, items json.RawMessage) error {
	if items == nil {
		items = json.RawMessage("[]")
	}
	_, err := r.pool.Exec(ctx, saveItemsQuery, userID, weekStart, models.QuizStatusReady, items)
	return err
}

// MarkFailed records terminal failure for the week's generation.
func (r *WeeklyQuizRepo) MarkFailed(ctx context.Context, userID int64, weekStart time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE weekly_quizzes SET status = $1, updated_at = NOW()
		 WHERE user_id = $2 AND week_start = $3`,
		models.QuizStatusFailed, userID, weekStart,
	)
	return err
}
