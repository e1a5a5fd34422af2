package models

import "time"

// MaxReviewBox is the highest Leitner box with the default interval table
const MaxReviewBox = 5

// SavedWord is a word the learner committed for spaced review
type SavedWord struct {
	ID           string    `json:"id"`
	Word         string    `json:"word"`
	Translation  string    `json:"translation"`
	Definition   string    `json:"definition"`
	Synonyms     []string  `json:"synonyms"`
	Context      string    `json:"context"`
	CreatedAt    time.Time `json:"createdAt"`
	ReviewBox    int       `json:"reviewBox"`
	NextReviewAt time.Time `json:"nextReviewAt"`
}

// DictionaryEntry is a pre-baked translation record
type DictionaryEntry struct {
	Translation string   `json:"translation"`
	Definition  string   `json:"definition"`
	Synonyms    []string `json:"synonyms"`
}

// LookupResult is what the reader shows after a word tap
type LookupResult struct {
	Raw     string          `json:"raw"`
	Key     string          `json:"key"`
	Entry   DictionaryEntry `json:"entry"`
	Found   bool            `json:"found"`
	Saved   bool            `json:"saved"`
	Context string          `json:"context,omitempty"`
}
