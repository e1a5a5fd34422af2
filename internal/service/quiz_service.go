package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ieltsreader/internal/config"
	"ieltsreader/internal/genai"
	"ieltsreader/internal/models"
	"ieltsreader/internal/quiz"
)

// QuizResultStore records finished quizzes
type QuizResultStore interface {
	Create(ctx context.Context, result models.QuizResult) (models.QuizResult, error)
	List(ctx context.Context, passageID string, limit uint64) ([]models.QuizResult, error)
}

type learnerQuiz struct {
	session   *quiz.Session
	passageID string
	lastUsed  time.Time
}

// QuizService keeps one quiz session per learner
type QuizService struct {
	reading   *ReadingService
	generator genai.Client
	results   QuizResultStore
	cfg       config.QuizConfig
	logger    *slog.Logger

	// afterFunc overrides the session timer in tests
	afterFunc quiz.AfterFunc
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*learnerQuiz
}

// NewQuizService creates a quiz service. generator and results may be nil.
func NewQuizService(reading *ReadingService, generator genai.Client, results QuizResultStore, cfg config.QuizConfig, logger *slog.Logger) *QuizService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuizService{
		reading:   reading,
		generator: generator,
		results:   results,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*learnerQuiz),
	}
}

// StartRequest selects the quiz to play
type StartRequest struct {
	PassageID string `json:"passageId"`
	// Generate asks the assistant for a fresh quiz instead of the
	// passage's pre-baked one
	Generate bool `json:"generate"`
}

// Start begins a quiz for learnerID. A quiz already in progress must be
// reset first; a finished one is replaced.
func (s *QuizService) Start(ctx context.Context, learnerID string, req StartRequest) (quiz.Snapshot, error) {
	s.mu.Lock()
	current := s.sessions[learnerID]
	s.mu.Unlock()
	if current != nil && current.session.State() == quiz.StatePlaying {
		return current.session.Snapshot(), ErrQuizActive
	}

	passage, err := s.reading.GetPassage(ctx, req.PassageID)
	if err != nil {
		return setupSnapshot(), err
	}

	items := passage.Quiz
	if req.Generate {
		if s.generator == nil {
			return setupSnapshot(), ErrAssistDisabled
		}
		items, err = s.generator.GenerateQuiz(ctx, PassageText(passage))
		if err != nil {
			s.logger.Warn("quiz generation failed", "passage", passage.ID, "error", err)
			return setupSnapshot(), errors.Join(ErrAssistUnavailable, err)
		}
	}

	lq := &learnerQuiz{passageID: passage.ID, lastUsed: s.now()}
	lq.session = quiz.NewSession(s.sessionOptions(learnerID, passage.ID)...)
	if err := lq.session.Start(items); err != nil {
		return lq.session.Snapshot(), err
	}

	s.mu.Lock()
	if existing := s.sessions[learnerID]; existing != nil && existing != current && existing.session.State() == quiz.StatePlaying {
		// lost a race with a concurrent start
		s.mu.Unlock()
		lq.session.Reset()
		return existing.session.Snapshot(), ErrQuizActive
	}
	if current != nil {
		current.session.Reset()
	}
	s.sessions[learnerID] = lq
	s.mu.Unlock()

	s.logger.Info("quiz started", "learner", learnerID, "passage", passage.ID, "items", len(items), "generated", req.Generate)
	return lq.session.Snapshot(), nil
}

func (s *QuizService) sessionOptions(learnerID, passageID string) []quiz.Option {
	opts := []quiz.Option{
		quiz.WithAutoAdvance(s.cfg.AutoAdvance),
		quiz.WithClock(s.now),
		quiz.OnComplete(func(r quiz.Result) { s.recordResult(learnerID, passageID, r) }),
	}
	if s.cfg.Seed != 0 {
		opts = append(opts, quiz.WithSeed(s.cfg.Seed))
	}
	if s.afterFunc != nil {
		opts = append(opts, quiz.WithAfterFunc(s.afterFunc))
	}
	return opts
}

func (s *QuizService) recordResult(learnerID, passageID string, r quiz.Result) {
	s.logger.Info("quiz finished", "learner", learnerID, "passage", passageID, "score", r.Score, "total", r.Total)
	if s.results == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.results.Create(ctx, models.QuizResult{
		PassageID:   passageID,
		Score:       r.Score,
		Total:       r.Total,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	})
	if err != nil {
		s.logger.Error("failed to record quiz result", "passage", passageID, "error", err)
	}
}

func (s *QuizService) lookup(learnerID string) *learnerQuiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	lq := s.sessions[learnerID]
	if lq != nil {
		lq.lastUsed = s.now()
	}
	return lq
}

// Answer records an answer for the current item
func (s *QuizService) Answer(learnerID string, optionIndex int) (quiz.AnswerOutcome, quiz.Snapshot, error) {
	lq := s.lookup(learnerID)
	if lq == nil {
		return quiz.AnswerOutcome{}, setupSnapshot(), ErrNoActiveQuiz
	}
	outcome, err := lq.session.Answer(optionIndex)
	return outcome, lq.session.Snapshot(), err
}

// Next advances without waiting for auto-advance
func (s *QuizService) Next(learnerID string) (quiz.Snapshot, error) {
	lq := s.lookup(learnerID)
	if lq == nil {
		return setupSnapshot(), ErrNoActiveQuiz
	}
	err := lq.session.Advance()
	return lq.session.Snapshot(), err
}

// Reset abandons the learner's quiz and returns to setup
func (s *QuizService) Reset(learnerID string) quiz.Snapshot {
	s.mu.Lock()
	lq := s.sessions[learnerID]
	delete(s.sessions, learnerID)
	s.mu.Unlock()

	if lq != nil {
		lq.session.Reset()
	}
	return setupSnapshot()
}

// State returns the learner's current quiz view
func (s *QuizService) State(learnerID string) (quiz.Snapshot, string) {
	lq := s.lookup(learnerID)
	if lq == nil {
		return setupSnapshot(), ""
	}
	return lq.session.Snapshot(), lq.passageID
}

// History lists finished quizzes, newest first
func (s *QuizService) History(ctx context.Context, passageID string, limit uint64) ([]models.QuizResult, error) {
	if s.results == nil {
		return []models.QuizResult{}, nil
	}
	return s.results.List(ctx, passageID, limit)
}

// PruneIdle drops sessions untouched for longer than maxIdle
func (s *QuizService) PruneIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var stale []*learnerQuiz
	for id, lq := range s.sessions {
		if lq.lastUsed.Before(cutoff) {
			stale = append(stale, lq)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, lq := range stale {
		lq.session.Reset()
	}
	return len(stale)
}

// RunPruner calls PruneIdle every interval until ctx is done
func (s *QuizService) RunPruner(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.PruneIdle(maxIdle); n > 0 {
				s.logger.Debug("pruned idle quiz sessions", "count", n)
			}
		}
	}
}

func setupSnapshot() quiz.Snapshot {
	return quiz.Snapshot{State: quiz.StateSetup}
}
