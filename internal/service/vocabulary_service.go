package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ieltsreader/internal/dictionary"
	"ieltsreader/internal/models"
	"ieltsreader/internal/validation"
	"ieltsreader/internal/vocab"
)

// WordPersister loads the saved word list and accepts snapshots to write
type WordPersister interface {
	Load(ctx context.Context) []models.SavedWord
	Save(words []models.SavedWord) error
}

// VocabularyService owns the learner's saved words. Every mutation hands
// a snapshot to the persister; the in-memory list stays authoritative
// even when a write fails.
type VocabularyService struct {
	store     *vocab.Store
	persister WordPersister
	dict      *dictionary.Dictionary
	now       func() time.Time
	logger    *slog.Logger
}

// NewVocabularyService creates a vocabulary service. persister may be nil
// for a memory-only list.
func NewVocabularyService(store *vocab.Store, persister WordPersister, dict *dictionary.Dictionary, logger *slog.Logger) *VocabularyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VocabularyService{
		store:     store,
		persister: persister,
		dict:      dict,
		now:       time.Now,
		logger:    logger,
	}
}

// Load replaces the in-memory list with the persisted one
func (s *VocabularyService) Load(ctx context.Context) int {
	if s.persister == nil {
		return s.store.Len()
	}
	s.store.Replace(s.persister.Load(ctx))
	n := s.store.Len()
	s.logger.Info("vocabulary loaded", "words", n)
	return n
}

func (s *VocabularyService) persist() {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(s.store.Snapshot()); err != nil {
		s.logger.Error("vocabulary snapshot not queued", "error", err)
	}
}

// SaveWordRequest is a word the learner wants to keep
type SaveWordRequest struct {
	Word        string   `json:"word"`
	Context     string   `json:"context"`
	Translation string   `json:"translation"`
	Definition  string   `json:"definition"`
	Synonyms    []string `json:"synonyms"`
}

// SaveWord adds a word to the list. Missing translation fields are filled
// from the dictionary. created is false when the word was already saved,
// in which case the existing entry is returned unchanged.
func (s *VocabularyService) SaveWord(ctx context.Context, req SaveWordRequest) (models.SavedWord, bool, error) {
	if err := validation.ValidateWord(req.Word); err != nil {
		return models.SavedWord{}, false, err
	}
	if err := validation.ValidateContext(req.Context); err != nil {
		return models.SavedWord{}, false, err
	}

	candidate := models.SavedWord{
		Word:        req.Word,
		Translation: strings.TrimSpace(req.Translation),
		Definition:  strings.TrimSpace(req.Definition),
		Synonyms:    req.Synonyms,
		Context:     strings.TrimSpace(req.Context),
	}
	if candidate.Translation == "" || candidate.Definition == "" {
		// a miss yields the fallback entry
		entry, _ := s.dict.Lookup(req.Word)
		if candidate.Translation == "" {
			candidate.Translation = entry.Translation
		}
		if candidate.Definition == "" {
			candidate.Definition = entry.Definition
		}
		if candidate.Synonyms == nil {
			candidate.Synonyms = entry.Synonyms
		}
	}
	if candidate.Synonyms == nil {
		candidate.Synonyms = []string{}
	}

	word, created := s.store.Add(candidate)
	if created {
		s.logger.Debug("word saved", "word", word.Word, "id", word.ID)
		s.persist()
	}
	return word, created, nil
}

// Delete removes a word. Unknown ids are a no-op.
func (s *VocabularyService) Delete(id string) bool {
	if !s.store.Remove(id) {
		return false
	}
	s.persist()
	return true
}

// Review records a flashcard outcome. Unknown ids are a no-op and report
// false.
func (s *VocabularyService) Review(id string, success bool) (models.SavedWord, bool) {
	word, ok := s.store.UpdateProgress(id, success)
	if !ok {
		return models.SavedWord{}, false
	}
	s.logger.Debug("word reviewed", "id", id, "success", success, "box", word.ReviewBox)
	s.persist()
	return word, true
}

// List returns every saved word in insertion order
func (s *VocabularyService) List() []models.SavedWord {
	return s.store.Snapshot()
}

// Get returns one saved word
func (s *VocabularyService) Get(id string) (models.SavedWord, bool) {
	return s.store.Get(id)
}

// Due returns the words due for review now
func (s *VocabularyService) Due() []models.SavedWord {
	return s.store.DueWords(s.now())
}

// IsSaved reports whether a word with the same key is in the list
func (s *VocabularyService) IsSaved(raw string) bool {
	return s.store.Contains(raw)
}

// Replace swaps the whole list, used by backup import
func (s *VocabularyService) Replace(words []models.SavedWord) {
	s.store.Replace(words)
	s.persist()
}

// Merge appends words whose keys are not already saved, keeping existing
// progress for the rest. It returns the number of words added.
func (s *VocabularyService) Merge(words []models.SavedWord) int {
	added := s.store.Merge(words)
	if added > 0 {
		s.persist()
	}
	return added
}
