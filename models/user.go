package models

import (
	"time"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"size:80;uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"size:120;uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"size:200;not null"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	QuizAttempts []QuizAttempt `json:"quiz_attempts,omitempty" gorm:"foreignKey:UserID"`
}
