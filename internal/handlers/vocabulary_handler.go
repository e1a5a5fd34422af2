package handlers

import (
	"net/http"

	"ieltsreader/internal/models"
	"ieltsreader/internal/service"
)

// VocabularyHandler serves the saved word list
type VocabularyHandler struct {
	vocab *service.VocabularyService
}

// NewVocabularyHandler creates a vocabulary handler
func NewVocabularyHandler(vocab *service.VocabularyService) *VocabularyHandler {
	return &VocabularyHandler{vocab: vocab}
}

// List handles GET /api/vocabulary; ?due=true returns due words only
func (h *VocabularyHandler) List(w http.ResponseWriter, r *http.Request) {
	var words []models.SavedWord
	if r.URL.Query().Get("due") == "true" {
		words = h.vocab.Due()
	} else {
		words = h.vocab.List()
	}
	respondJSON(w, http.StatusOK, words)
}

type saveWordResponse struct {
	Word    models.SavedWord `json:"word"`
	Created bool             `json:"created"`
}

// Save handles POST /api/vocabulary. Saving an existing word returns it
// with 200 instead of 201.
func (h *VocabularyHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req service.SaveWordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	word, created, err := h.vocab.SaveWord(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, saveWordResponse{Word: word, Created: created})
}

// Delete handles DELETE /api/vocabulary/{id}. Unknown ids are a no-op.
func (h *VocabularyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.vocab.Delete(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

type reviewRequest struct {
	Success *bool `json:"success"`
}

type reviewResponse struct {
	Updated bool              `json:"updated"`
	Word    *models.SavedWord `json:"word,omitempty"`
}

// Review handles POST /api/vocabulary/{id}/review
func (h *VocabularyHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Success == nil {
		respondWithError(w, http.StatusBadRequest, "success is required", "", nil)
		return
	}

	word, ok := h.vocab.Review(r.PathValue("id"), *req.Success)
	resp := reviewResponse{Updated: ok}
	if ok {
		resp.Word = &word
	}
	respondJSON(w, http.StatusOK, resp)
}
