package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"ieltsreader/internal/models"
)

// ReminderService periodically emails the learner the words due for
// review. The same due set is not sent twice in a row.
type ReminderService struct {
	email    *EmailService
	vocab    *VocabularyService
	to       string
	interval time.Duration
	logger   *slog.Logger

	lastDigest string
}

// NewReminderService creates a reminder service
func NewReminderService(email *EmailService, vocab *VocabularyService, to string, interval time.Duration, logger *slog.Logger) *ReminderService {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &ReminderService{
		email:    email,
		vocab:    vocab,
		to:       to,
		interval: interval,
		logger:   logger,
	}
}

// CheckOnce sends a digest when words are due. It reports whether an
// email went out.
func (s *ReminderService) CheckOnce(ctx context.Context) (bool, error) {
	if !s.email.IsEnabled() || s.to == "" {
		return false, nil
	}

	due := s.vocab.Due()
	if len(due) == 0 {
		s.lastDigest = ""
		return false, nil
	}

	digest := digestKey(due)
	if digest == s.lastDigest {
		return false, nil
	}

	if err := s.email.SendDueDigest(ctx, s.to, due); err != nil {
		return false, err
	}
	s.lastDigest = digest
	s.logger.Info("review reminder sent", "due", len(due))
	return true, nil
}

// Run checks immediately and then every interval until ctx is done
func (s *ReminderService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.CheckOnce(ctx); err != nil {
			s.logger.Error("review reminder failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func digestKey(words []models.SavedWord) string {
	ids := make([]string, len(words))
	for i, w := range words {
		ids[i] = w.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}
