package models

import (
	"encoding/json"
	"time"
)

// Weekly quiz lifecycle states.
const (
	QuizStatusPending    = "pending"
	QuizStatusProcessing = "processing"
	QuizStatusReady      = "ready"
	QuizStatusFailed     = "failed"
)

// WeeklyQuiz is one user's quiz for one ISO week. There is at most one row
// per (user, week_start); regeneration overwrites items in place and leaves
// Version untouched.
type WeeklyQuiz struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	WeekStart time.Time       `json:"week_start"`
	Status    string          `json:"status"`
	Version   int             `json:"version"`
	ItemsJSON json.RawMessage `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type GenerateQuizRequest struct {
	Regenerate bool `json:"regenerate"`
	PerContent int  `json:"per_content"`
}

type WeeklyQuizResponse struct {
	Quiz      *WeeklyQuiz `json:"quiz,omitempty"`
	Status    string      `json:"status"`
	WeekStart string      `json:"week_start"`
}
