package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"estudai-backend/internal/models"
)

type SubjectContentRepo struct {
	pool *pgxpool.Pool
}

func NewSubjectContentRepo(pool *pgxpool.Pool) *SubjectContentRepo {
	return &SubjectContentRepo{pool: pool}
}

const fetchCompletedSinceQuery = `SELECT sc.id, sc.user_id, sc.subject, sc.title, sc.body, sc.created_at
	FROM subject_contents sc
	JOIN completed_content cc ON cc.content_id = sc.id
	WHERE cc.user_id = $1 AND cc.completed_at >= $2
	ORDER BY cc.completed_at DESC`

// FetchCompletedSince returns the contents a user completed on or after the
// cutoff, newest first. This is the weekly quiz's primary input; the order
// decides which content wins the global question dedupe downstream.
func (r *SubjectContentRepo) FetchCompletedSince(ctx context.Context, userID int64, since time.Time) ([]*models.SubjectContent, error) {
	rows, err := r.pool.Query(ctx, fetchCompletedSinceQuery, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContents(rows)
}

// FetchRecent returns the user's latest contents as a fallback input when the
// week has no completions.
func (r *SubjectContentRepo) FetchRecent(ctx context.Context, userID int64, limit int) ([]*models.SubjectContent, error) {
	query := `SELECT id, user_id, subject, title, body, created_at
		FROM subject_contents WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContents(rows)
}

// Subjects lists the distinct subjects of a user's contents, used as topics
// for the template fallback quiz.
func (r *SubjectContentRepo) Subjects(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT DISTINCT subject FROM subject_contents WHERE user_id = $1 ORDER BY subject", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// MarkCompleted upserts the completion record for (user, content).
func (r *SubjectContentRepo) MarkCompleted(ctx context.Context, userID, contentID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO completed_content (user_id, content_id, completed_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id, content_id) DO UPDATE SET completed_at = NOW()`,
		userID, contentID,
	)
	return err
}

func scanContents(rows pgx.Rows) ([]*models.SubjectContent, error) {
	var contents []*models.SubjectContent
	for rows.Next() {
		c := &models.SubjectContent{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Subject, &c.Title, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}
