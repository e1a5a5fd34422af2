package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ieltsreader/internal/config"
	"ieltsreader/internal/content"
	"ieltsreader/internal/dictionary"
	"ieltsreader/internal/models"
	"ieltsreader/internal/quiz"
	"ieltsreader/internal/security"
	"ieltsreader/internal/service"
	"ieltsreader/internal/srs"
	"ieltsreader/internal/vocab"
)

const testSecret = "test-secret-that-is-at-least-32-bytes"

type testServer struct {
	t       *testing.T
	handler http.Handler
	startup *StartupStatus
	cookies []*http.Cookie
}

func newTestServer(t *testing.T, auth *AuthHandler, tokens *security.TokenManager) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dict, err := dictionary.New()
	require.NoError(t, err)
	catalog, err := content.NewCatalog()
	require.NoError(t, err)

	vocabulary := service.NewVocabularyService(vocab.NewStore(srs.NewScheduler(nil)), nil, dict, logger)
	reading := service.NewReadingService(catalog, nil, dict, vocabulary, logger)
	quizzes := service.NewQuizService(reading, nil, nil, config.QuizConfig{Seed: 3}, logger)

	startup := NewStartupStatus(StepDatabase, StepServer)
	handler := NewRouter(Dependencies{
		Reading:    reading,
		Vocabulary: vocabulary,
		Quiz:       quizzes,
		Assist:     service.NewAssistService(nil, logger),
		Auth:       auth,
		Middleware: NewMiddleware(tokens, security.NewCSRFGenerator(testSecret), nil),
		Startup:    startup,
		Logger:     logger,
	})
	return &testServer{t: t, handler: handler, startup: startup}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	for _, c := range s.cookies {
		req.AddCookie(c)
		if c.Name == security.CSRFCookieName {
			req.Header.Set(security.CSRFHeaderName, c.Value)
		}
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		s.setCookie(c)
	}
	return rec
}

func (s *testServer) setCookie(c *http.Cookie) {
	for i := range s.cookies {
		if s.cookies[i].Name == c.Name {
			s.cookies[i] = c
			return
		}
	}
	s.cookies = append(s.cookies, c)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRouter_HealthAndReadiness(t *testing.T) {
	s := newTestServer(t, nil, nil)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", nil).Code)

	rec := s.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.startup.CompleteStep(StepDatabase)
	view := decodeBody[startupView](t, s.do(http.MethodGet, "/readyz", nil))
	assert.Equal(t, 50, view.Progress)
	assert.False(t, view.Ready)

	s.startup.MarkReady()
	rec = s.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[startupView](t, rec).Ready)
}

func TestRouter_RequestID(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRouter_Passages(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(http.MethodGet, "/api/passages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summaries := decodeBody[[]models.PassageSummary](t, rec)
	assert.Len(t, summaries, 3)

	rec = s.do(http.MethodGet, "/api/passages/urban-heat-islands", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rendered := decodeBody[models.RenderedPassage](t, rec)
	assert.Equal(t, len(rendered.Paragraphs), len(rendered.Segments))
	assert.NotContains(t, rec.Body.String(), `"quiz"`)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/passages/nope", nil).Code)
}

func TestRouter_Lookup(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(http.MethodGet, "/api/lookup?word=Mitigate,&passage=urban-heat-islands&paragraph=0&offset=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[models.LookupResult](t, rec)
	assert.True(t, res.Found)
	assert.Equal(t, "mitigate", res.Key)
	assert.NotEmpty(t, res.Context)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/lookup?word=", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/lookup?word=x&offset=abc", nil).Code)
}

func TestRouter_CSRF(t *testing.T) {
	s := newTestServer(t, nil, nil)

	// no learner cookie yet
	rec := s.do(http.MethodPost, "/api/vocabulary", map[string]string{"word": "urban"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the first response issued the cookies, so the retry carries the token
	rec = s.do(http.MethodPost, "/api/vocabulary", map[string]string{"word": "urban"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/vocabulary", strings.NewReader(`{"word":"ritual"}`))
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	req.Header.Set(security.CSRFHeaderName, "forged")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_VocabularyFlow(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.do(http.MethodGet, "/api/passages", nil)

	rec := s.do(http.MethodPost, "/api/vocabulary", map[string]string{"word": "Mitigate,", "context": "to mitigate heat"})
	require.Equal(t, http.StatusCreated, rec.Code)
	saved := decodeBody[saveWordResponse](t, rec)
	assert.True(t, saved.Created)
	assert.Equal(t, "mitigate", saved.Word.Word)
	assert.NotEmpty(t, saved.Word.Translation)

	rec = s.do(http.MethodPost, "/api/vocabulary", map[string]string{"word": "MITIGATE"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[saveWordResponse](t, rec).Created)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/vocabulary", map[string]string{"word": "..."}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/vocabulary", map[string]string{"bogus": "x"}).Code)

	due := decodeBody[[]models.SavedWord](t, s.do(http.MethodGet, "/api/vocabulary?due=true", nil))
	require.Len(t, due, 1)

	rec = s.do(http.MethodPost, "/api/vocabulary/"+saved.Word.ID+"/review", map[string]bool{"success": true})
	require.Equal(t, http.StatusOK, rec.Code)
	review := decodeBody[reviewResponse](t, rec)
	require.True(t, review.Updated)
	assert.Equal(t, 1, review.Word.ReviewBox)
	assert.Empty(t, decodeBody[[]models.SavedWord](t, s.do(http.MethodGet, "/api/vocabulary?due=true", nil)))

	rec = s.do(http.MethodPost, "/api/vocabulary/unknown/review", map[string]bool{"success": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[reviewResponse](t, rec).Updated)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/vocabulary/"+saved.Word.ID+"/review", map[string]string{}).Code)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/vocabulary/"+saved.Word.ID, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/vocabulary/unknown", nil).Code)
	assert.Empty(t, decodeBody[[]models.SavedWord](t, s.do(http.MethodGet, "/api/vocabulary", nil)))
}

func TestRouter_QuizFlow(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.do(http.MethodGet, "/api/quiz", nil)

	state := decodeBody[quizStateResponse](t, s.do(http.MethodGet, "/api/quiz", nil))
	assert.Equal(t, quiz.StateSetup, state.State)

	rec := s.do(http.MethodPost, "/api/quiz/start", map[string]string{"passageId": "coral-restoration"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/quiz/start", map[string]string{}).Code)
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/api/quiz/answer", map[string]int{"optionIndex": 0}).Code)

	rec = s.do(http.MethodPost, "/api/quiz/start", map[string]string{"passageId": "history-of-tea"})
	require.Equal(t, http.StatusOK, rec.Code)
	state = decodeBody[quizStateResponse](t, rec)
	assert.Equal(t, quiz.StatePlaying, state.State)
	assert.Equal(t, 3, state.Total)
	assert.Equal(t, "history-of-tea", state.PassageID)

	rec = s.do(http.MethodPost, "/api/quiz/start", map[string]string{"passageId": "history-of-tea"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/quiz/answer", map[string]int{"optionIndex": 42}).Code)

	for i := 0; i < 3; i++ {
		rec = s.do(http.MethodPost, "/api/quiz/answer", map[string]int{"optionIndex": 0})
		require.Equal(t, http.StatusOK, rec.Code)
		answer := decodeBody[answerResponse](t, rec)
		assert.True(t, answer.Outcome.Accepted)

		rec = s.do(http.MethodPost, "/api/quiz/answer", map[string]int{"optionIndex": 1})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decodeBody[answerResponse](t, rec).Outcome.Accepted)

		rec = s.do(http.MethodPost, "/api/quiz/next", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	final := decodeBody[quiz.Snapshot](t, rec)
	assert.Equal(t, quiz.StateResult, final.State)
	require.NotNil(t, final.Result)
	assert.Equal(t, 3, final.Result.Total)

	history := decodeBody[[]models.QuizResult](t, s.do(http.MethodGet, "/api/quiz/history", nil))
	assert.Empty(t, history, "no result store configured")

	rec = s.do(http.MethodPost, "/api/quiz/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, quiz.StateSetup, decodeBody[quiz.Snapshot](t, rec).State)
}

func TestRouter_AssistDisabled(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.do(http.MethodGet, "/api/quiz", nil)

	rec := s.do(http.MethodPost, "/api/assist", map[string]string{"action": "translate", "word": "urban"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Assistant is not configured", decodeError(t, rec))

	rec = s.do(http.MethodPost, "/api/assist", map[string]string{"action": "poem"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_AccessGate(t *testing.T) {
	hash, err := security.HashPassword("open sesame")
	require.NoError(t, err)
	tokens := security.NewTokenManager(testSecret, time.Hour)
	s := newTestServer(t, NewAuthHandler(hash, tokens), tokens)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/passages", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/healthz", nil).Code)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/login", map[string]string{"password": ""}).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/login", map[string]string{"password": "wrong"}).Code)

	rec := s.do(http.MethodPost, "/login", map[string]string{"password": "open sesame"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/passages", nil).Code)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/passages", nil).Code)
}
