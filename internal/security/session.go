package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// LearnerCookieName identifies the browser; quiz sessions are keyed by it
	LearnerCookieName = "reader_learner"
	// CSRFCookieName carries the CSRF token readable by page scripts
	CSRFCookieName = "reader_csrf"
	// CSRFHeaderName is where scripts echo the CSRF token back
	CSRFHeaderName = "X-CSRF-Token"

	learnerCookieTTL = 365 * 24 * time.Hour
)

// GenerateSessionID creates a new UUID for session identification
func GenerateSessionID() string {
	return uuid.New().String()
}

// IsSecureRequest determines if the request is over HTTPS
// Checks TLS connection, X-Forwarded-Proto header (for reverse proxies), and URL scheme
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// CreateSessionCookie creates an HttpOnly cookie; Secure follows the request scheme
func CreateSessionCookie(r *http.Request, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateDeleteCookie creates a cookie that clears name
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
	}
}

// LearnerID returns the learner id from the request cookie
func LearnerID(r *http.Request) (string, bool) {
	c, err := r.Cookie(LearnerCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

// EnsureLearnerID returns the request's learner id, issuing a new learner
// cookie and matching CSRF cookie when there is none
func EnsureLearnerID(w http.ResponseWriter, r *http.Request, csrf *CSRFGenerator) string {
	if id, ok := LearnerID(r); ok {
		return id
	}

	id := GenerateSessionID()
	expires := time.Now().Add(learnerCookieTTL)
	http.SetCookie(w, CreateSessionCookie(r, LearnerCookieName, id, expires))

	if token, err := csrf.GenerateToken(id); err == nil {
		c := CreateSessionCookie(r, CSRFCookieName, token, expires)
		c.HttpOnly = false
		http.SetCookie(w, c)
	}
	return id
}
