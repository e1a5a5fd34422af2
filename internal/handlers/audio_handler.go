package handlers

import (
	"errors"
	"net/http"

	"ieltsreader/internal/audio"
)

// AudioHandler serves cached pronunciation clips
type AudioHandler struct {
	tts *audio.TTSService
}

// NewAudioHandler creates an audio handler
func NewAudioHandler(tts *audio.TTSService) *AudioHandler {
	return &AudioHandler{tts: tts}
}

// Get handles GET /api/audio/{word}, synthesizing the clip on first use
func (h *AudioHandler) Get(w http.ResponseWriter, r *http.Request) {
	path, err := h.tts.AudioPath(r.Context(), r.PathValue("word"))
	if errors.Is(err, audio.ErrInvalidWord) {
		respondWithError(w, http.StatusBadRequest, "Invalid word", "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "Audio unavailable", "audio synthesis failed", err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

// Delete handles DELETE /api/audio/{word} so a bad clip is regenerated on
// the next request
func (h *AudioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.tts.DeleteAudioFile(r.PathValue("word"))
	if errors.Is(err, audio.ErrInvalidWord) {
		respondWithError(w, http.StatusBadRequest, "Invalid word", "", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to delete audio", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
