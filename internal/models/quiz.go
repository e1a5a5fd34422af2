package models

import "time"

// QuizItem is one pre-baked multiple-choice vocabulary question
type QuizItem struct {
	Word               string   `json:"word"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Explanation        string   `json:"explanation"`
}

// QuizResult is a finished quiz session kept for history
type QuizResult struct {
	ID          int64     `json:"id"`
	PassageID   string    `json:"passageId"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Accuracy returns the percentage of correct answers
func (r QuizResult) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Score) / float64(r.Total) * 100
}
