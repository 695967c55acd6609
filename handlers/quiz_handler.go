package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"smartquizzer/llm"
	"smartquizzer/services"

	"github.com/gin-gonic/gin"
)

// Values of error_type in failed generation responses, besides the llm.Kind values.
const (
	ErrorTypeMissingCredential = "MissingCredential"
	ErrorTypeMalformedResponse = "MalformedResponse"
	ErrorTypeInternal          = "InternalError"
)

type QuizHandler struct {
	quizService *services.QuizService
	log         *slog.Logger
}

func NewQuizHandler(quizService *services.QuizService, logger *slog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		log:         logger,
	}
}

func (h *QuizHandler) GenerateQuiz(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req services.GenerateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request: " + err.Error()})
		return
	}

	count := services.DefaultQuestionCount
	if req.NumQuestions != nil {
		count = *req.NumQuestions
	}
	topic := services.NormalizeTopic(req.Topic)

	quiz, err := h.quizService.Generate(c.Request.Context(), topic, count)
	if err != nil {
		message, errorType := describeGenerateError(err)
		h.log.ErrorContext(c.Request.Context(), "quiz generation failed",
			"user_id", identity.UserID, "topic", topic, "error_type", errorType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":    false,
			"message":    message,
			"error_type": errorType,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"quiz":    quiz,
		"topic":   topic,
	})
}

// TestUpstream checks that the upstream credential and endpoint work.
func (h *QuizHandler) TestUpstream(c *gin.Context) {
	reply, err := h.quizService.CheckUpstream(c.Request.Context())
	if errors.Is(err, llm.ErrMissingCredential) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "GROQ_API_KEY is not configured",
			"help":    "Create a .env file with GROQ_API_KEY=your-actual-key",
		})
		return
	}
	if err != nil {
		_, errorType := describeGenerateError(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":    false,
			"message":    "Groq API test failed: " + err.Error(),
			"error_type": errorType,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Groq API is configured correctly!",
		"test_response": reply,
	})
}

func describeGenerateError(err error) (message, errorType string) {
	if errors.Is(err, llm.ErrMissingCredential) {
		return "API key not configured. Please check your .env file and ensure GROQ_API_KEY is set to your actual key.",
			ErrorTypeMissingCredential
	}
	if errors.Is(err, services.ErrMalformedResponse) {
		return "Failed to parse quiz data. The AI response was not in valid JSON format. Please try again.",
			ErrorTypeMalformedResponse
	}

	kind, ok := llm.KindOf(err)
	if !ok {
		return "Failed to generate quiz. Please try again.", ErrorTypeInternal
	}

	switch kind {
	case llm.KindRateLimited:
		message = "Rate limit exceeded. Please wait a moment and try again."
	case llm.KindConnectivity:
		message = "Network error. Please check your internet connection and try again."
	case llm.KindAuthentication:
		message = "API key error. Please verify your GROQ_API_KEY in the .env file."
	default:
		message = "Failed to generate quiz: " + err.Error()
	}
	return message, string(kind)
}
