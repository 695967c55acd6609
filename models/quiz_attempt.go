package models

import (
	"time"
)

// QuizAttempt is one completed quiz submission. Rows are never updated.
type QuizAttempt struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"not null;index"`
	Topic          string    `json:"topic" gorm:"size:100;not null"`
	Score          int       `json:"score" gorm:"not null"`
	TotalQuestions int       `json:"total_questions" gorm:"not null"`
	CompletedAt    time.Time `json:"completed_at" gorm:"not null;index"`
}
