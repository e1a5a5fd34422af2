package handlers

import (
	"errors"
	"net/http"
	"time"

	"ieltsreader/internal/security"
	"ieltsreader/internal/validation"
)

// AuthHandler serves the optional single-learner access gate
type AuthHandler struct {
	passwordHash string
	tokens       *security.TokenManager
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(passwordHash string, tokens *security.TokenManager) *AuthHandler {
	return &AuthHandler{passwordHash: passwordHash, tokens: tokens}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login checks the shared password and sets the access cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := validation.ValidatePassword(req.Password); err != nil {
		respondWithServiceError(w, err)
		return
	}

	if err := security.CheckPassword(h.passwordHash, req.Password); err != nil {
		if errors.Is(err, security.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid password", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "password check failed", err)
		return
	}

	token, expires, err := h.tokens.Issue("learner")
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "failed to issue token", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.AuthCookieName, token, expires))
	respondJSON(w, http.StatusOK, loginResponse{ExpiresAt: expires})
}

// Logout clears the access cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r, security.AuthCookieName))
	w.WriteHeader(http.StatusNoContent)
}
