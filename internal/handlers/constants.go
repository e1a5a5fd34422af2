package handlers

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	LearnerContextKey   ContextKey = "learner"
	RequestIDContextKey ContextKey = "request_id"

	RequestIDHeader = "X-Request-Id"

	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"

	maxBodyBytes = 1 << 20
)
