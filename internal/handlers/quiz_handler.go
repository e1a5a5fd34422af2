package handlers

import (
	"net/http"
	"strconv"

	"ieltsreader/internal/quiz"
	"ieltsreader/internal/service"
)

// QuizHandler serves the per-learner quiz session
type QuizHandler struct {
	quizzes *service.QuizService
}

// NewQuizHandler creates a quiz handler
func NewQuizHandler(quizzes *service.QuizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

type quizStateResponse struct {
	quiz.Snapshot
	PassageID string `json:"passageId,omitempty"`
}

// Start handles POST /api/quiz/start
func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req service.StartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PassageID == "" {
		respondWithError(w, http.StatusBadRequest, "passageId is required", "", nil)
		return
	}

	snap, err := h.quizzes.Start(r.Context(), GetLearnerFromContext(r.Context()), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quizStateResponse{Snapshot: snap, PassageID: req.PassageID})
}

// State handles GET /api/quiz
func (h *QuizHandler) State(w http.ResponseWriter, r *http.Request) {
	snap, passageID := h.quizzes.State(GetLearnerFromContext(r.Context()))
	respondJSON(w, http.StatusOK, quizStateResponse{Snapshot: snap, PassageID: passageID})
}

type answerRequest struct {
	OptionIndex *int `json:"optionIndex"`
}

type answerResponse struct {
	Outcome quiz.AnswerOutcome `json:"outcome"`
	State   quiz.Snapshot      `json:"state"`
}

// Answer handles POST /api/quiz/answer
func (h *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.OptionIndex == nil {
		respondWithError(w, http.StatusBadRequest, "optionIndex is required", "", nil)
		return
	}

	outcome, snap, err := h.quizzes.Answer(GetLearnerFromContext(r.Context()), *req.OptionIndex)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, answerResponse{Outcome: outcome, State: snap})
}

// Next handles POST /api/quiz/next
func (h *QuizHandler) Next(w http.ResponseWriter, r *http.Request) {
	snap, err := h.quizzes.Next(GetLearnerFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Reset handles POST /api/quiz/reset
func (h *QuizHandler) Reset(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.quizzes.Reset(GetLearnerFromContext(r.Context())))
}

// History handles GET /api/quiz/history
func (h *QuizHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var limit uint64 = 20
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit", "", nil)
			return
		}
		limit = n
	}

	results, err := h.quizzes.History(r.Context(), q.Get("passage"), limit)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}
