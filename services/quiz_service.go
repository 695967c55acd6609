package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"smartquizzer/models"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultTopic         = "General Knowledge"
	DefaultQuestionCount = 15
	MinQuestionCount     = 5
	MaxQuestionCount     = 50
)

var ErrMalformedResponse = errors.New("malformed quiz response")

// Completer sends a prompt to a text-generation model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type QuizService struct {
	llm      Completer
	validate *validator.Validate
	log      *slog.Logger
}

func NewQuizService(llm Completer, logger *slog.Logger) *QuizService {
	validate := validator.New()
	// "whole" accepts 1 and 1.0 but not 1.5.
	_ = validate.RegisterValidation("whole", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return f == math.Trunc(f)
	})

	return &QuizService{
		llm:      llm,
		validate: validate,
		log:      logger.With("component", "quiz"),
	}
}

type GenerateQuizRequest struct {
	Topic        string `json:"topic"`
	NumQuestions *int   `json:"num_questions"`
}

// Generate asks the model for count questions about topic. count is clamped
// into [MinQuestionCount, MaxQuestionCount] and an empty topic falls back to
// DefaultTopic. The reply is returned only if every question is well formed,
// and each question is returned byte for byte as the model wrote it.
func (s *QuizService) Generate(ctx context.Context, topic string, count int) ([]json.RawMessage, error) {
	topic = NormalizeTopic(topic)
	count = ClampQuestionCount(count)

	s.log.InfoContext(ctx, "generating quiz", "topic", topic, "questions", count)

	reply, err := s.llm.Complete(ctx, BuildPrompt(topic, count))
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	s.log.DebugContext(ctx, "received upstream reply", "preview", preview(reply, 200))

	questions, err := s.ParseQuestions(reply)
	if err != nil {
		s.log.WarnContext(ctx, "rejected upstream reply", "error", err, "reply", reply)
		return nil, err
	}

	s.log.InfoContext(ctx, "quiz generated", "topic", topic, "questions", len(questions))
	return questions, nil
}

// CheckUpstream makes a minimal request to verify the credential and endpoint.
func (s *QuizService) CheckUpstream(ctx context.Context) (string, error) {
	return s.llm.Complete(ctx, "Reply with the single word: ready")
}

// ParseQuestions splits a reply that must be a non-empty JSON array of
// questions, each with 4 options and a correct_answer index in 0..3. The
// elements are returned unmodified, extra keys included.
func (s *QuizService) ParseQuestions(reply string) ([]json.RawMessage, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrMalformedResponse)
	}

	for i, item := range raw {
		var q models.QuizQuestion
		if err := json.Unmarshal(item, &q); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrMalformedResponse, i+1, err)
		}
		if err := s.validate.Struct(&q); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrMalformedResponse, i+1, err)
		}
	}

	return raw, nil
}

func NormalizeTopic(topic string) string {
	if topic = strings.TrimSpace(topic); topic == "" {
		return DefaultTopic
	}
	return topic
}

func ClampQuestionCount(count int) int {
	return min(max(count, MinQuestionCount), MaxQuestionCount)
}

func BuildPrompt(topic string, count int) string {
	return fmt.Sprintf(`Generate %d multiple choice quiz questions about %s.

Return ONLY a valid JSON array with this exact structure:
[
  {
    "question": "Question text here?",
    "options": ["Option A text", "Option B text", "Option C text", "Option D text"],
    "correct_answer": 0,
    "explanation": "Brief explanation of the correct answer"
  }
]

Rules:
- Each question must have exactly 4 options
- correct_answer is the index (0-3) of the correct option
- Make questions educational and accurate
- Vary difficulty levels
- Return ONLY the JSON array, no other text`, count, topic)
}

func preview(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
