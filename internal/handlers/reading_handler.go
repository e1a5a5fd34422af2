package handlers

import (
	"net/http"
	"strconv"

	"ieltsreader/internal/service"
)

// ReadingHandler serves passages and word lookups
type ReadingHandler struct {
	reading *service.ReadingService
}

// NewReadingHandler creates a reading handler
func NewReadingHandler(reading *service.ReadingService) *ReadingHandler {
	return &ReadingHandler{reading: reading}
}

// ListPassages handles GET /api/passages
func (h *ReadingHandler) ListPassages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	passages, err := h.reading.ListPassages(r.Context(), q.Get("q"), q.Get("source"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, passages)
}

// GetPassage handles GET /api/passages/{id}
func (h *ReadingHandler) GetPassage(w http.ResponseWriter, r *http.Request) {
	rendered, err := h.reading.RenderPassage(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rendered)
}

// Lookup handles GET /api/lookup
func (h *ReadingHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.LookupRequest{
		Word:      q.Get("word"),
		PassageID: q.Get("passage"),
		Paragraph: -1,
	}

	var ok bool
	if req.Paragraph, ok = intParam(w, q.Get("paragraph"), -1, "paragraph"); !ok {
		return
	}
	if req.Offset, ok = intParam(w, q.Get("offset"), 0, "offset"); !ok {
		return
	}

	result, err := h.reading.Lookup(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func intParam(w http.ResponseWriter, raw string, def int, name string) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name, "", nil)
		return 0, false
	}
	return n, true
}
