// Package validation checks request input before it reaches the services.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"ieltsreader/internal/text"
)

const (
	MaxWordLength     = 64
	MaxContextLength  = 1000
	MaxPassageContent = 20000
	MaxPassageIDLen   = 128
)

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	passageIDRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9\-_]*$`)
)

// ValidationError is a field-level input error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks a login password is present
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) > 72 {
		return ValidationError{Field: "password", Message: "password must be at most 72 bytes"}
	}
	return nil
}

// ValidateWord checks a tapped or saved word has a usable lookup key
func ValidateWord(word string) error {
	if strings.TrimSpace(word) == "" {
		return ValidationError{Field: "word", Message: "word is required"}
	}
	if utf8.RuneCountInString(word) > MaxWordLength {
		return ValidationError{Field: "word", Message: fmt.Sprintf("word must be at most %d characters", MaxWordLength)}
	}
	if text.Normalize(word) == "" {
		return ValidationError{Field: "word", Message: "word has no letters or digits"}
	}
	return nil
}

// ValidateContext checks the source sentence sent with a word
func ValidateContext(context string) error {
	if utf8.RuneCountInString(context) > MaxContextLength {
		return ValidationError{Field: "context", Message: fmt.Sprintf("context must be at most %d characters", MaxContextLength)}
	}
	return nil
}

// ValidatePassageID checks a passage id is a lowercase slug
func ValidatePassageID(id string) error {
	if id == "" {
		return ValidationError{Field: "passageId", Message: "passage id is required"}
	}
	if len(id) > MaxPassageIDLen || !passageIDRegex.MatchString(id) {
		return ValidationError{Field: "passageId", Message: "passage id must be a lowercase slug"}
	}
	return nil
}

// ValidatePassageContent checks text sent for quiz generation
func ValidatePassageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ValidationError{Field: "passageContent", Message: "passage content is required"}
	}
	if utf8.RuneCountInString(content) > MaxPassageContent {
		return ValidationError{Field: "passageContent", Message: fmt.Sprintf("passage content must be at most %d characters", MaxPassageContent)}
	}
	return nil
}
