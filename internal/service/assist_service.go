package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ieltsreader/internal/genai"
	"ieltsreader/internal/models"
	"ieltsreader/internal/validation"
)

// Assist actions
const (
	AssistTranslate = "translate"
	AssistQuiz      = "quiz"
)

// AssistRequest is a call to the optional language-model assistant
type AssistRequest struct {
	Action         string `json:"action"`
	Word           string `json:"word"`
	Context        string `json:"context"`
	PassageContent string `json:"passageContent"`
}

// AssistResponse carries whichever field the action fills
type AssistResponse struct {
	Translation *genai.Translation `json:"translation,omitempty"`
	Quiz        []models.QuizItem  `json:"quiz,omitempty"`
}

// AssistService forwards translate and quiz requests to the model
// backend. It is usable with a nil client and then reports
// ErrAssistDisabled.
type AssistService struct {
	client genai.Client
	logger *slog.Logger
}

// NewAssistService creates an assist service
func NewAssistService(client genai.Client, logger *slog.Logger) *AssistService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssistService{client: client, logger: logger}
}

// Enabled reports whether a backend is configured
func (s *AssistService) Enabled() bool {
	return s.client != nil
}

// Handle validates and dispatches a request
func (s *AssistService) Handle(ctx context.Context, req AssistRequest) (AssistResponse, error) {
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case AssistTranslate:
		if err := validation.ValidateWord(req.Word); err != nil {
			return AssistResponse{}, err
		}
		if err := validation.ValidateContext(req.Context); err != nil {
			return AssistResponse{}, err
		}
		if s.client == nil {
			return AssistResponse{}, ErrAssistDisabled
		}
		tr, err := s.client.Translate(ctx, strings.TrimSpace(req.Word), strings.TrimSpace(req.Context))
		if err != nil {
			return AssistResponse{}, s.unavailable(req.Action, err)
		}
		return AssistResponse{Translation: &tr}, nil

	case AssistQuiz:
		if err := validation.ValidatePassageContent(req.PassageContent); err != nil {
			return AssistResponse{}, err
		}
		if s.client == nil {
			return AssistResponse{}, ErrAssistDisabled
		}
		items, err := s.client.GenerateQuiz(ctx, req.PassageContent)
		if err != nil {
			return AssistResponse{}, s.unavailable(req.Action, err)
		}
		return AssistResponse{Quiz: items}, nil

	default:
		return AssistResponse{}, validation.ValidationError{Field: "action", Message: "action must be translate or quiz"}
	}
}

func (s *AssistService) unavailable(action string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Warn("assist request failed", "action", action, "error", err)
	return errors.Join(ErrAssistUnavailable, err)
}
