// Package content provides the built-in reading passages.
package content

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"ieltsreader/internal/models"
)

//go:embed data/passages.json
var builtinPassages []byte

// Catalog is the read-only, ordered set of built-in passages
type Catalog struct {
	passages []models.Passage
	byID     map[string]int
}

// NewCatalog parses the embedded passages
func NewCatalog() (*Catalog, error) {
	return parseCatalog(builtinPassages)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var passages []models.Passage
	if err := json.Unmarshal(data, &passages); err != nil {
		return nil, fmt.Errorf("parse passages: %w", err)
	}

	c := &Catalog{passages: passages, byID: make(map[string]int, len(passages))}
	for i := range c.passages {
		p := &c.passages[i]
		if p.ID == "" {
			return nil, fmt.Errorf("passage %d has no id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate passage id %q", p.ID)
		}
		if err := ValidateQuiz(p.Quiz); err != nil {
			return nil, fmt.Errorf("passage %q: %w", p.ID, err)
		}
		p.Source = models.PassageSourceBuiltin
		c.byID[p.ID] = i
	}
	return c, nil
}

// List returns the passages in catalog order
func (c *Catalog) List() []models.Passage {
	out := make([]models.Passage, len(c.passages))
	copy(out, c.passages)
	return out
}

// Get returns the passage with id
func (c *Catalog) Get(id string) (models.Passage, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Passage{}, false
	}
	return c.passages[i], true
}

// ValidateQuiz checks that every item has options and a correct index
// inside them
func ValidateQuiz(items []models.QuizItem) error {
	for i, item := range items {
		if len(item.Options) < 2 {
			return fmt.Errorf("quiz item %d (%s) needs at least two options", i, item.Word)
		}
		if item.CorrectOptionIndex < 0 || item.CorrectOptionIndex >= len(item.Options) {
			return fmt.Errorf("quiz item %d (%s) correct index %d out of range", i, item.Word, item.CorrectOptionIndex)
		}
	}
	return nil
}
