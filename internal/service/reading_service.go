package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"ieltsreader/internal/content"
	"ieltsreader/internal/dictionary"
	"ieltsreader/internal/models"
	"ieltsreader/internal/repository"
	"ieltsreader/internal/text"
	"ieltsreader/internal/validation"
)

// PassageStore persists imported passages
type PassageStore interface {
	GetByID(ctx context.Context, id string) (models.Passage, error)
	List(ctx context.Context, filter repository.PassageFilter) ([]models.Passage, error)
	Save(ctx context.Context, p models.Passage) error
}

// ReadingService serves passages and word lookups
type ReadingService struct {
	catalog  *content.Catalog
	passages PassageStore
	dict     *dictionary.Dictionary
	vocab    *VocabularyService
	logger   *slog.Logger
}

// NewReadingService creates a reading service. passages may be nil, in
// which case only built-in passages are served.
func NewReadingService(catalog *content.Catalog, passages PassageStore, dict *dictionary.Dictionary, vocab *VocabularyService, logger *slog.Logger) *ReadingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadingService{
		catalog:  catalog,
		passages: passages,
		dict:     dict,
		vocab:    vocab,
		logger:   logger,
	}
}

// ListPassages returns built-in passages followed by imported ones.
// query filters titles case-insensitively; source limits to one origin.
func (s *ReadingService) ListPassages(ctx context.Context, query, source string) ([]models.PassageSummary, error) {
	summaries := []models.PassageSummary{}
	q := strings.ToLower(strings.TrimSpace(query))

	if source == "" || source == models.PassageSourceBuiltin {
		for _, p := range s.catalog.List() {
			if q == "" || strings.Contains(strings.ToLower(p.Title), q) {
				summaries = append(summaries, p.Summary())
			}
		}
	}

	if s.passages != nil && (source == "" || source == models.PassageSourceImported) {
		imported, err := s.passages.List(ctx, repository.PassageFilter{Query: q})
		if err != nil {
			return nil, fmt.Errorf("list imported passages: %w", err)
		}
		for _, p := range imported {
			summaries = append(summaries, p.Summary())
		}
	}

	return summaries, nil
}

// GetPassage returns a built-in or imported passage
func (s *ReadingService) GetPassage(ctx context.Context, id string) (models.Passage, error) {
	if p, ok := s.catalog.Get(id); ok {
		return p, nil
	}
	if s.passages == nil {
		return models.Passage{}, ErrPassageNotFound
	}

	p, err := s.passages.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Passage{}, ErrPassageNotFound
	}
	if err != nil {
		return models.Passage{}, fmt.Errorf("get passage %s: %w", id, err)
	}
	return p, nil
}

// RenderPassage returns a passage with every paragraph tokenized
func (s *ReadingService) RenderPassage(ctx context.Context, id string) (models.RenderedPassage, error) {
	p, err := s.GetPassage(ctx, id)
	if err != nil {
		return models.RenderedPassage{}, err
	}

	rendered := models.RenderedPassage{
		Passage:  p,
		Segments: make([][]models.WordSegment, len(p.Paragraphs)),
	}
	for i, para := range p.Paragraphs {
		rendered.Segments[i] = text.Tokenize(para)
	}
	// the learner answers these, the quiz endpoint serves them
	rendered.Quiz = nil
	return rendered, nil
}

// LookupRequest is a tapped word and where it was tapped
type LookupRequest struct {
	Word      string
	PassageID string
	Paragraph int
	// Offset is the byte offset of the word inside the paragraph
	Offset int
}

// Lookup resolves a tapped word against the dictionary. A miss is not an
// error; it returns the fallback entry. Punctuation-only words normalize
// to an empty key and always miss.
func (s *ReadingService) Lookup(ctx context.Context, req LookupRequest) (models.LookupResult, error) {
	if strings.TrimSpace(req.Word) == "" || utf8.RuneCountInString(req.Word) > validation.MaxWordLength {
		return models.LookupResult{}, validation.ValidationError{Field: "word", Message: "word is required and must be short"}
	}

	entry, found := s.dict.Lookup(req.Word)
	result := models.LookupResult{
		Raw:   req.Word,
		Key:   text.Normalize(req.Word),
		Entry: entry,
		Found: found,
	}
	if s.vocab != nil {
		result.Saved = s.vocab.IsSaved(req.Word)
	}

	if req.PassageID != "" {
		p, err := s.GetPassage(ctx, req.PassageID)
		if err != nil {
			return models.LookupResult{}, err
		}
		if req.Paragraph >= 0 && req.Paragraph < len(p.Paragraphs) {
			result.Context = text.SentenceAround(p.Paragraphs[req.Paragraph], req.Offset)
		}
	}

	return result, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug builds a passage id from a title
func Slug(title string) string {
	slug := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(slug) > 48 {
		slug = strings.TrimRight(slug[:48], "-")
	}
	if slug == "" {
		slug = "passage"
	}
	return slug + "-" + uuid.NewString()[:8]
}

// ImportPassage stores an imported passage, assigning an id from the
// title when it has none
func (s *ReadingService) ImportPassage(ctx context.Context, p models.Passage) (models.Passage, error) {
	if s.passages == nil {
		return models.Passage{}, fmt.Errorf("import passage: no passage store configured")
	}

	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return models.Passage{}, validation.ValidationError{Field: "title", Message: "title is required"}
	}

	paragraphs := make([]string, 0, len(p.Paragraphs))
	for _, para := range p.Paragraphs {
		if para = strings.TrimSpace(para); para != "" {
			paragraphs = append(paragraphs, para)
		}
	}
	if len(paragraphs) == 0 {
		return models.Passage{}, validation.ValidationError{Field: "paragraphs", Message: "at least one paragraph is required"}
	}
	p.Paragraphs = paragraphs

	if p.ID == "" {
		p.ID = Slug(p.Title)
	}
	if err := validation.ValidatePassageID(p.ID); err != nil {
		return models.Passage{}, err
	}
	if _, builtin := s.catalog.Get(p.ID); builtin {
		return models.Passage{}, ErrPassageExists
	}
	if err := content.ValidateQuiz(p.Quiz); err != nil {
		return models.Passage{}, validation.ValidationError{Field: "quiz", Message: err.Error()}
	}

	p.Source = models.PassageSourceImported
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	if err := s.passages.Save(ctx, p); err != nil {
		return models.Passage{}, fmt.Errorf("save passage %s: %w", p.ID, err)
	}
	s.logger.Info("passage imported", "id", p.ID, "paragraphs", len(p.Paragraphs), "quiz_items", len(p.Quiz))
	return p, nil
}

// PassageText joins a passage's paragraphs for quiz generation
func PassageText(p models.Passage) string {
	return strings.Join(p.Paragraphs, "\n\n")
}
