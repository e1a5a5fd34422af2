package service

import (
	"errors"

	"ieltsreader/internal/quiz"
)

var (
	ErrPassageNotFound   = errors.New("passage not found")
	ErrPassageExists     = errors.New("passage id already used by a built-in passage")
	ErrAssistDisabled    = errors.New("assistant is not configured")
	ErrAssistUnavailable = errors.New("assistant request failed")

	// Quiz errors are the state machine's own sentinels so errors.Is
	// works on either name.
	ErrNoQuizItems   = quiz.ErrNoQuizItems
	ErrInvalidOption = quiz.ErrInvalidOption
	ErrNoActiveQuiz  = quiz.ErrNotPlaying
	ErrQuizActive    = quiz.ErrAlreadyActive
)
