package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"smartquizzer/models"

	"gorm.io/gorm"
)

const (
	DefaultHistoryLimit = 10
	historyDateLayout   = "2006-01-02 15:04"
)

type ScoreService struct {
	db  *gorm.DB
	log *slog.Logger
	now func() time.Time
}

func NewScoreService(db *gorm.DB, logger *slog.Logger) *ScoreService {
	return &ScoreService{
		db:  db,
		log: logger.With("component", "scores"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

type SaveScoreRequest struct {
	Topic          string `json:"topic" binding:"required,max=100"`
	Score          int    `json:"score" binding:"gte=0"`
	TotalQuestions int    `json:"total_questions" binding:"required,gt=0"`
}

type HistoryEntry struct {
	Topic      string  `json:"topic"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Date       string  `json:"date"`
}

// Record stores one finished attempt. It does not check score against
// total; callers do.
func (s *ScoreService) Record(ctx context.Context, userID uint, req *SaveScoreRequest) (*models.QuizAttempt, error) {
	attempt := models.QuizAttempt{
		UserID:         userID,
		Topic:          strings.TrimSpace(req.Topic),
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		CompletedAt:    s.now(),
	}

	if err := s.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	s.log.InfoContext(ctx, "score saved",
		"user_id", userID, "topic", attempt.Topic, "score", attempt.Score, "total", attempt.TotalQuestions)
	return &attempt, nil
}

// History returns the user's latest attempts, newest first. limit is capped
// at DefaultHistoryLimit.
func (s *ScoreService) History(ctx context.Context, userID uint, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}

	var attempts []models.QuizAttempt
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	history := make([]HistoryEntry, 0, len(attempts))
	for _, a := range attempts {
		history = append(history, HistoryEntry{
			Topic:      a.Topic,
			Score:      a.Score,
			Total:      a.TotalQuestions,
			Percentage: Percentage(a.Score, a.TotalQuestions),
			Date:       a.CompletedAt.Format(historyDateLayout),
		})
	}

	return history, nil
}

// Percentage is score/total as a percent rounded to one decimal; 0 when total is 0.
func Percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(score)/float64(total)*1000) / 10
}
