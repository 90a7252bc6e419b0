package models

import "time"

// SubjectContent is a study material entry authored for a subject. Body may
// contain HTML from the content editor; the quiz generator sanitizes it.
type SubjectContent struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Subject   string    `json:"subject"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CompletedContent records that a user finished studying a content item.
// Completed items feed the weekly quiz.
type CompletedContent struct {
	UserID      int64     `json:"user_id"`
	ContentID   int64     `json:"content_id"`
	CompletedAt time.Time `json:"completed_at"`
}

type ContentCompletedRequest struct {
	ContentID int64 `json:"content_id"`
}
