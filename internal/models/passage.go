package models

import "time"

// Passage sources
const (
	PassageSourceBuiltin  = "builtin"
	PassageSourceImported = "imported"
)

// Passage is an IELTS reading passage with its comprehension questions
// and an optional pre-baked vocabulary quiz
type Passage struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Paragraphs          []string   `json:"paragraphs"`
	QuestionInstruction string     `json:"questionInstruction"`
	Questions           []Question `json:"questions"`
	Quiz                []QuizItem `json:"quiz,omitempty"`
	Source              string     `json:"source"`
	SourceURL           string     `json:"sourceUrl,omitempty"`
	CreatedAt           time.Time  `json:"createdAt,omitempty"`
}

// Question is a numbered comprehension question
type Question struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// HasQuiz reports whether the passage ships a pre-baked quiz
func (p *Passage) HasQuiz() bool {
	return len(p.Quiz) > 0
}

// PassageSummary is the list view of a passage
type PassageSummary struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	ParagraphCount int    `json:"paragraphCount"`
	QuestionCount  int    `json:"questionCount"`
	HasQuiz        bool   `json:"hasQuiz"`
	Source         string `json:"source"`
}

// Summary builds the list view of a passage
func (p *Passage) Summary() PassageSummary {
	return PassageSummary{
		ID:             p.ID,
		Title:          p.Title,
		ParagraphCount: len(p.Paragraphs),
		QuestionCount:  len(p.Questions),
		HasQuiz:        p.HasQuiz(),
		Source:         p.Source,
	}
}

// WordSegment is one display slice of a paragraph. Whitespace runs are
// segments with IsWord false; Key is set only for word segments.
type WordSegment struct {
	Text   string `json:"text"`
	IsWord bool   `json:"isWord"`
	Key    string `json:"key,omitempty"`
}

// RenderedPassage is a passage with every paragraph tokenized
type RenderedPassage struct {
	Passage
	Segments [][]WordSegment `json:"segments"`
}
