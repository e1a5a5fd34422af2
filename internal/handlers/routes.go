package handlers

import (
	"log/slog"
	"net/http"

	"ieltsreader/internal/audio"
	"ieltsreader/internal/service"
)

// Dependencies are the services the router wires to routes. Audio and
// Auth are optional.
type Dependencies struct {
	Reading    *service.ReadingService
	Vocabulary *service.VocabularyService
	Quiz       *service.QuizService
	Assist     *service.AssistService
	Audio      *audio.TTSService
	Auth       *AuthHandler
	Middleware *Middleware
	Startup    *StartupStatus
	StaticDir  string
	Logger     *slog.Logger
}

// NewRouter builds the HTTP handler with all routes and the request
// middleware chain
func NewRouter(deps Dependencies) http.Handler {
	m := deps.Middleware
	reading := NewReadingHandler(deps.Reading)
	vocab := NewVocabularyHandler(deps.Vocabulary)
	quizzes := NewQuizHandler(deps.Quiz)
	assist := NewAssistHandler(deps.Assist)

	// api wraps a route with the gate, the learner cookie and CSRF
	api := func(h http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(m.Learner(m.CSRFProtect(h)))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", Healthz)
	mux.HandleFunc("GET /readyz", deps.Startup.Readyz)

	if deps.Auth != nil {
		mux.HandleFunc("POST /login", m.RateLimit(deps.Auth.Login))
		mux.HandleFunc("POST /logout", deps.Auth.Logout)
	}

	mux.HandleFunc("GET /api/passages", api(reading.ListPassages))
	mux.HandleFunc("GET /api/passages/{id}", api(reading.GetPassage))
	mux.HandleFunc("GET /api/lookup", api(reading.Lookup))

	mux.HandleFunc("GET /api/vocabulary", api(vocab.List))
	mux.HandleFunc("POST /api/vocabulary", api(vocab.Save))
	mux.HandleFunc("DELETE /api/vocabulary/{id}", api(vocab.Delete))
	mux.HandleFunc("POST /api/vocabulary/{id}/review", api(vocab.Review))

	mux.HandleFunc("POST /api/quiz/start", api(m.RateLimit(quizzes.Start)))
	mux.HandleFunc("GET /api/quiz", api(quizzes.State))
	mux.HandleFunc("POST /api/quiz/answer", api(quizzes.Answer))
	mux.HandleFunc("POST /api/quiz/next", api(quizzes.Next))
	mux.HandleFunc("POST /api/quiz/reset", api(quizzes.Reset))
	mux.HandleFunc("GET /api/quiz/history", api(quizzes.History))

	mux.HandleFunc("POST /api/assist", api(m.RateLimit(assist.Assist)))

	if deps.Audio != nil {
		audioHandler := NewAudioHandler(deps.Audio)
		mux.HandleFunc("GET /api/audio/{word}", api(audioHandler.Get))
		mux.HandleFunc("DELETE /api/audio/{word}", api(audioHandler.Delete))
	}

	if deps.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(deps.StaticDir)))
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return RequestID(Logging(logger)(Recovery(logger)(mux)))
}
