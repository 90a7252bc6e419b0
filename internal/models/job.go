package models

import (
	"time"

	"github.com/google/uuid"
)

// Job types understood by the worker pool.
const (
	JobTypeWeeklyQuiz = "weekly-quiz-generation"
)

// Job statuses.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

type Job struct {
	ID           uuid.UUID  `json:"id"`
	UserID       int64      `json:"user_id"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	RetryCount   int        `json:"retry_count"`
	MaxRetries   int        `json:"max_retries"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// QuizReadyEvent is published on the user's update channel when the worker
// finishes generating a weekly quiz.
type QuizReadyEvent struct {
	Type      string `json:"type"`
	UserID    int64  `json:"user_id"`
	WeekStart string `json:"week_start"`
	Status    string `json:"status"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
