package handlers

import (
	"net/http"

	"ieltsreader/internal/models"
	"ieltsreader/internal/service"
)

// AssistHandler proxies requests to the language-model assistant
type AssistHandler struct {
	assist *service.AssistService
}

// NewAssistHandler creates an assist handler
func NewAssistHandler(assist *service.AssistService) *AssistHandler {
	return &AssistHandler{assist: assist}
}

// Assist handles POST /api/assist. A translate action answers
// {translation, definition}; a quiz action answers the item list.
func (h *AssistHandler) Assist(w http.ResponseWriter, r *http.Request) {
	var req service.AssistRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.assist.Handle(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if resp.Translation != nil {
		respondJSON(w, http.StatusOK, resp.Translation)
		return
	}
	respondJSON(w, http.StatusOK, toWireQuiz(resp.Quiz))
}

// quizItemWire is the assist wire shape, which names the answer index
// correctAnswerIndex
type quizItemWire struct {
	Word               string   `json:"word"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
}

func toWireQuiz(items []models.QuizItem) []quizItemWire {
	out := make([]quizItemWire, len(items))
	for i, item := range items {
		out[i] = quizItemWire{
			Word:               item.Word,
			Question:           item.Question,
			Options:            item.Options,
			CorrectAnswerIndex: item.CorrectOptionIndex,
			Explanation:        item.Explanation,
		}
	}
	return out
}
