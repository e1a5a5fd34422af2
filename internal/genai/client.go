// Package genai calls a hosted language model for on-demand translations
// and quiz generation. Nothing in the reader depends on it being
// configured.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ieltsreader/internal/config"
	"ieltsreader/internal/content"
	"ieltsreader/internal/models"
)

// ErrEmptyResponse is returned when the model answers with no usable text
var ErrEmptyResponse = errors.New("empty model response")

// Translation is the remote answer to a translate request
type Translation struct {
	Translation string `json:"translation"`
	Definition  string `json:"definition"`
}

// Client is what the assist service needs from a model backend
type Client interface {
	Translate(ctx context.Context, word, sentence string) (Translation, error)
	GenerateQuiz(ctx context.Context, passageContent string) ([]models.QuizItem, error)
}

// AnthropicClient implements Client with the Anthropic Messages API
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	logger    *slog.Logger
}

// NewAnthropicClient builds a client from cfg. Extra request options are
// appended after the configured ones.
func NewAnthropicClient(cfg config.GenAIConfig, logger *slog.Logger, opts ...option.RequestOption) *AnthropicClient {
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	if logger == nil {
		logger = slog.Default()
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(reqOpts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		logger:    logger,
	}
}

func (c *AnthropicClient) complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("messages api: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		b.WriteString(block.Text)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("model call finished",
		slog.String("model", c.model),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int64("output_tokens", msg.Usage.OutputTokens))
	return b.String(), nil
}

// Translate asks for a Russian translation and a short English definition
// of word as used in sentence
func (c *AnthropicClient) Translate(ctx context.Context, word, sentence string) (Translation, error) {
	text, err := c.complete(ctx, translatePrompt(word, sentence))
	if err != nil {
		return Translation{}, fmt.Errorf("translate %q: %w", word, err)
	}

	raw, err := extractJSON(text, '{', '}')
	if err != nil {
		return Translation{}, fmt.Errorf("translate %q: %w", word, err)
	}

	var t Translation
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return Translation{}, fmt.Errorf("translate %q: decode: %w", word, err)
	}
	if t.Translation == "" {
		return Translation{}, fmt.Errorf("translate %q: %w", word, ErrEmptyResponse)
	}
	return t, nil
}

// quizItemWire is the model's item shape; it names the answer index
// correctAnswerIndex
type quizItemWire struct {
	Word               string   `json:"word"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

// GenerateQuiz asks for vocabulary questions about passageContent
func (c *AnthropicClient) GenerateQuiz(ctx context.Context, passageContent string) ([]models.QuizItem, error) {
	text, err := c.complete(ctx, quizPrompt(passageContent))
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	raw, err := extractJSON(text, '[', ']')
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	var wire []quizItemWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("generate quiz: decode: %w", err)
	}

	items := make([]models.QuizItem, 0, len(wire))
	for _, w := range wire {
		items = append(items, models.QuizItem{
			Word:               w.Word,
			Question:           w.Question,
			Options:            w.Options,
			CorrectOptionIndex: w.CorrectAnswerIndex,
			Explanation:        w.Explanation,
		})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("generate quiz: %w", ErrEmptyResponse)
	}
	if err := content.ValidateQuiz(items); err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	return items, nil
}

// extractJSON returns the text between the first opening and last closing
// delimiter, inclusive
func extractJSON(s string, opening, closing byte) (string, error) {
	start := strings.IndexByte(s, opening)
	end := strings.LastIndexByte(s, closing)
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON %c...%c found in response", opening, closing)
	}
	return s[start : end+1], nil
}
