package handlers

import (
	"log/slog"
	"net/http"

	"smartquizzer/services"

	"github.com/gin-gonic/gin"
)

type ScoreHandler struct {
	scoreService *services.ScoreService
	log          *slog.Logger
}

func NewScoreHandler(scoreService *services.ScoreService, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{
		scoreService: scoreService,
		log:          logger,
	}
}

func (h *ScoreHandler) SaveScore(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req services.SaveScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request: " + err.Error()})
		return
	}
	if req.Score > req.TotalQuestions {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Score cannot exceed total questions"})
		return
	}

	if _, err := h.scoreService.Record(c.Request.Context(), identity.UserID, &req); err != nil {
		h.log.ErrorContext(c.Request.Context(), "save score", "user_id", identity.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to save score"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Score saved"})
}

func (h *ScoreHandler) GetHistory(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	history, err := h.scoreService.History(c.Request.Context(), identity.UserID, services.DefaultHistoryLimit)
	if err != nil {
		h.log.ErrorContext(c.Request.Context(), "load history", "user_id", identity.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "history": history})
}
