// Package vocab holds the learner's saved word list and its persistence.
package vocab

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ieltsreader/internal/models"
	"ieltsreader/internal/srs"
	"ieltsreader/internal/text"
)

// Store is the ordered list of saved words. Insertion order is kept and
// at most one word exists per normalized key. Store never persists
// anything itself; the owner saves a Snapshot after each mutation.
type Store struct {
	mu        sync.RWMutex
	words     []models.SavedWord
	scheduler *srs.Scheduler
	now       func() time.Time
	newID     func() string
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the uuid id generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore creates an empty store scheduling with scheduler
func NewStore(scheduler *srs.Scheduler, opts ...Option) *Store {
	s := &Store{
		scheduler: scheduler,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sameKey(a, b string) bool {
	return strings.EqualFold(a, b)
}

// indexOfKeyLocked assumes s.mu is held
func (s *Store) indexOfKeyLocked(key string) int {
	for i := range s.words {
		if sameKey(s.words[i].Word, key) {
			return i
		}
	}
	return -1
}

// indexOfIDLocked assumes s.mu is held
func (s *Store) indexOfIDLocked(id string) int {
	for i := range s.words {
		if s.words[i].ID == id {
			return i
		}
	}
	return -1
}

// Add appends candidate under its normalized key, in box 0 and due now.
// If the key is already stored the existing word is returned with added
// false and the store is unchanged. Words with an empty key are never added.
func (s *Store) Add(candidate models.SavedWord) (models.SavedWord, bool) {
	key := text.Normalize(candidate.Word)
	if key == "" {
		return models.SavedWord{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOfKeyLocked(key); i >= 0 {
		return s.words[i], false
	}

	now := s.now()
	w := candidate
	w.ID = s.newID()
	w.Word = key
	w.CreatedAt = now
	if w.Synonyms == nil {
		w.Synonyms = []string{}
	}
	s.scheduler.Initialize(&w, now)

	s.words = append(s.words, w)
	return w, true
}

// Remove deletes the word with id. Unknown ids are ignored.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfIDLocked(id)
	if i < 0 {
		return false
	}
	s.words = append(s.words[:i], s.words[i+1:]...)
	return true
}

// UpdateProgress applies a review outcome to the word with id in place.
// Unknown ids are ignored.
func (s *Store) UpdateProgress(id string, success bool) (models.SavedWord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfIDLocked(id)
	if i < 0 {
		return models.SavedWord{}, false
	}
	s.words[i] = s.scheduler.RecordOutcome(s.words[i], success, s.now())
	return s.words[i], true
}

// DueWords returns, in store order, the words due at now
func (s *Store) DueWords(now time.Time) []models.SavedWord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	due := make([]models.SavedWord, 0)
	for _, w := range s.words {
		if srs.IsDue(w, now) {
			due = append(due, w)
		}
	}
	return due
}

// Get returns the word with id
func (s *Store) Get(id string) (models.SavedWord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOfIDLocked(id); i >= 0 {
		return s.words[i], true
	}
	return models.SavedWord{}, false
}

// Contains reports whether raw's normalized key is stored
func (s *Store) Contains(raw string) bool {
	key := text.Normalize(raw)
	if key == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOfKeyLocked(key) >= 0
}

// Len returns the number of saved words
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words)
}

// Snapshot returns a copy of the list in insertion order
func (s *Store) Snapshot() []models.SavedWord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SavedWord, len(s.words))
	copy(out, s.words)
	return out
}

// Replace swaps in a loaded list. Duplicate keys keep their first entry,
// missing ids are generated and boxes are clamped to the interval table.
func (s *Store) Replace(words []models.SavedWord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.words = make([]models.SavedWord, 0, len(words))
	s.appendLocked(words)
}

// Merge appends words whose keys are not saved yet and reports how many
// were added. Existing entries keep their progress.
func (s *Store) Merge(words []models.SavedWord) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendLocked(words)
}

func (s *Store) appendLocked(words []models.SavedWord) int {
	added := 0
	for _, w := range words {
		w.Word = text.Normalize(w.Word)
		if w.Word == "" || s.indexOfKeyLocked(w.Word) >= 0 {
			continue
		}
		if w.ID == "" {
			w.ID = s.newID()
		}
		if w.ReviewBox < 0 {
			w.ReviewBox = 0
		}
		if w.ReviewBox > s.scheduler.MaxBox() {
			w.ReviewBox = s.scheduler.MaxBox()
		}
		if w.Synonyms == nil {
			w.Synonyms = []string{}
		}
		s.words = append(s.words, w)
		added++
	}
	return added
}
