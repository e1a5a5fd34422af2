// Package quiz drives a multiple-choice vocabulary quiz through
// setup, loading, playing and result.
package quiz

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"ieltsreader/internal/models"
)

// State of a quiz session
type State string

const (
	StateSetup   State = "setup"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StateResult  State = "result"
)

var (
	ErrNoQuizItems   = errors.New("no quiz items available for this passage")
	ErrInvalidOption = errors.New("option index out of range")
	ErrNotPlaying    = errors.New("quiz is not in progress")
	ErrAlreadyActive = errors.New("quiz already started")
)

// Timer is the part of *time.Timer the session uses
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Result is the outcome of a finished session
type Result struct {
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Session is one learner's quiz. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	state     State
	items     []models.QuizItem
	index     int
	score     int
	answered  bool
	selected  int
	startedAt time.Time
	result    *Result

	autoAdvance time.Duration
	afterFunc   AfterFunc
	now         func() time.Time
	rng         *rand.Rand
	onComplete  func(Result)

	timer Timer
	// gen is bumped whenever the current item changes or a timer is
	// cancelled; a firing timer with an older gen does nothing.
	gen uint64
}

// Option configures a Session
type Option func(*Session)

// WithAutoAdvance sets the delay between an answer and the next item.
// Zero disables auto-advance.
func WithAutoAdvance(d time.Duration) Option {
	return func(s *Session) { s.autoAdvance = d }
}

// WithSeed fixes the shuffle order. Zero means random.
func WithSeed(seed uint64) Option {
	return func(s *Session) { s.rng = newRand(seed) }
}

// WithAfterFunc replaces time.AfterFunc
func WithAfterFunc(f AfterFunc) Option {
	return func(s *Session) { s.afterFunc = f }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// OnComplete registers fn to run once each time a session reaches RESULT.
// fn runs without the session lock held.
func OnComplete(fn func(Result)) Option {
	return func(s *Session) { s.onComplete = fn }
}

// NewSession returns a session in SETUP
func NewSession(opts ...Option) *Session {
	s := &Session{
		state:       StateSetup,
		selected:    -1,
		autoAdvance: 2 * time.Second,
		afterFunc:   realAfterFunc,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = newRand(0)
	}
	return s
}

// Start shuffles a copy of items and begins play. An empty list returns
// ErrNoQuizItems and leaves the session in SETUP.
func (s *Session) Start(items []models.QuizItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateSetup {
		return ErrAlreadyActive
	}
	if len(items) == 0 {
		return ErrNoQuizItems
	}

	s.state = StateLoading
	s.items = make([]models.QuizItem, len(items))
	copy(s.items, items)
	shuffle(s.items, s.rng)

	s.index = 0
	s.score = 0
	s.answered = false
	s.selected = -1
	s.result = nil
	s.startedAt = s.now()
	s.state = StatePlaying
	return nil
}

// AnswerOutcome reports how an answer call was handled
type AnswerOutcome struct {
	// Accepted is false when the current item was already answered
	Accepted           bool   `json:"accepted"`
	Correct            bool   `json:"correct"`
	CorrectOptionIndex int    `json:"correctOptionIndex"`
	Explanation        string `json:"explanation"`
}

// Answer records the learner's choice for the current item. Only the
// first answer per item counts; later calls return Accepted false.
func (s *Session) Answer(optionIndex int) (AnswerOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		return AnswerOutcome{}, ErrNotPlaying
	}
	item := s.items[s.index]
	if optionIndex < 0 || optionIndex >= len(item.Options) {
		return AnswerOutcome{}, ErrInvalidOption
	}

	outcome := AnswerOutcome{
		Correct:            s.selected == item.CorrectOptionIndex,
		CorrectOptionIndex: item.CorrectOptionIndex,
		Explanation:        item.Explanation,
	}
	if s.answered {
		return outcome, nil
	}

	s.answered = true
	s.selected = optionIndex
	outcome.Accepted = true
	outcome.Correct = optionIndex == item.CorrectOptionIndex
	if outcome.Correct {
		s.score++
	}

	if s.autoAdvance > 0 {
		gen := s.gen
		s.timer = s.afterFunc(s.autoAdvance, func() { s.autoAdvanceFired(gen) })
	}
	return outcome, nil
}

func (s *Session) autoAdvanceFired(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.state != StatePlaying {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	done := s.advanceLocked()
	s.mu.Unlock()

	s.notify(done)
}

// Advance moves to the next item, or to RESULT after the last one
func (s *Session) Advance() error {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return ErrNotPlaying
	}
	done := s.advanceLocked()
	s.mu.Unlock()

	s.notify(done)
	return nil
}

// advanceLocked assumes s.mu is held. It returns the result when the
// session has just finished.
func (s *Session) advanceLocked() *Result {
	s.cancelTimerLocked()

	if s.index+1 < len(s.items) {
		s.index++
		s.answered = false
		s.selected = -1
		return nil
	}

	s.state = StateResult
	s.result = &Result{
		Score:       s.score,
		Total:       len(s.items),
		StartedAt:   s.startedAt,
		CompletedAt: s.now(),
	}
	r := *s.result
	return &r
}

// cancelTimerLocked assumes s.mu is held
func (s *Session) cancelTimerLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) notify(r *Result) {
	if r != nil && s.onComplete != nil {
		s.onComplete(*r)
	}
}

// Reset cancels any pending auto-advance and returns to SETUP. It is a
// no-op in SETUP.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimerLocked()
	s.state = StateSetup
	s.items = nil
	s.index = 0
	s.score = 0
	s.answered = false
	s.selected = -1
	s.result = nil
}

// ItemView is the current item as shown to the learner. The answer key is
// revealed only after the item is answered.
type ItemView struct {
	Word               string   `json:"word"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex *int     `json:"correctOptionIndex,omitempty"`
	Explanation        string   `json:"explanation,omitempty"`
}

// Snapshot is a read-only view of the session
type Snapshot struct {
	State         State     `json:"state"`
	Index         int       `json:"index"`
	Total         int       `json:"total"`
	Score         int       `json:"score"`
	Answered      bool      `json:"answered"`
	SelectedIndex *int      `json:"selectedIndex,omitempty"`
	Item          *ItemView `json:"item,omitempty"`
	Result        *Result   `json:"result,omitempty"`
}

// Snapshot returns the current view
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:    s.state,
		Index:    s.index,
		Total:    len(s.items),
		Score:    s.score,
		Answered: s.answered,
	}

	switch s.state {
	case StatePlaying:
		item := s.items[s.index]
		view := &ItemView{
			Word:     item.Word,
			Question: item.Question,
			Options:  item.Options,
		}
		if s.answered {
			selected := s.selected
			correct := item.CorrectOptionIndex
			snap.SelectedIndex = &selected
			view.CorrectOptionIndex = &correct
			view.Explanation = item.Explanation
		}
		snap.Item = view
	case StateResult:
		r := *s.result
		snap.Result = &r
	}
	return snap
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
