package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/require"

	"ieltsreader/internal/content"
	"ieltsreader/internal/dictionary"
	"ieltsreader/internal/genai"
	"ieltsreader/internal/models"
	"ieltsreader/internal/quiz"
	"ieltsreader/internal/repository"
	"ieltsreader/internal/srs"
	"ieltsreader/internal/vocab"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memPassages struct {
	mu       sync.Mutex
	passages map[string]models.Passage
	listErr  error
}

func newMemPassages() *memPassages {
	return &memPassages{passages: make(map[string]models.Passage)}
}

func (m *memPassages) GetByID(_ context.Context, id string) (models.Passage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.passages[id]
	if !ok {
		return models.Passage{}, repository.ErrNotFound
	}
	return p, nil
}

func (m *memPassages) List(_ context.Context, filter repository.PassageFilter) ([]models.Passage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []models.Passage{}
	for _, p := range m.passages {
		if filter.Query == "" || strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.Query)) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memPassages) Save(_ context.Context, p models.Passage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passages[p.ID] = p
	return nil
}

type memResults struct {
	mu      sync.Mutex
	results []models.QuizResult
	nextID  int64
}

func (m *memResults) Create(_ context.Context, r models.QuizResult) (models.QuizResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	m.results = append(m.results, r)
	return r, nil
}

func (m *memResults) List(_ context.Context, passageID string, limit uint64) ([]models.QuizResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.QuizResult{}
	for i := len(m.results) - 1; i >= 0; i-- {
		if passageID == "" || m.results[i].PassageID == passageID {
			out = append(out, m.results[i])
		}
	}
	if limit > 0 && uint64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memResults) ReplaceAll(_ context.Context, results []models.QuizResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = nil
	m.nextID = 0
	for _, r := range results {
		m.nextID++
		r.ID = m.nextID
		m.results = append(m.results, r)
	}
	return nil
}

func (m *memResults) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

type recordingPersister struct {
	mu     sync.Mutex
	loaded []models.SavedWord
	saves  [][]models.SavedWord
}

func (p *recordingPersister) Load(context.Context) []models.SavedWord {
	return p.loaded
}

func (p *recordingPersister) Save(words []models.SavedWord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, words)
	return nil
}

func (p *recordingPersister) saveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

func (p *recordingPersister) last() []models.SavedWord {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saves) == 0 {
		return nil
	}
	return p.saves[len(p.saves)-1]
}

type fakeGenAI struct {
	translation genai.Translation
	quiz        []models.QuizItem
	err         error
	calls       int
}

func (f *fakeGenAI) Translate(context.Context, string, string) (genai.Translation, error) {
	f.calls++
	return f.translation, f.err
}

func (f *fakeGenAI) GenerateQuiz(context.Context, string) ([]models.QuizItem, error) {
	f.calls++
	return f.quiz, f.err
}

type fakeSES struct {
	mu     sync.Mutex
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

var errBoom = errors.New("boom")

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (f *fakeTimers) AfterFunc(_ time.Duration, fn func()) quiz.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{f: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *fakeTimers) fireLast(t *testing.T) {
	t.Helper()
	f.mu.Lock()
	require.NotEmpty(t, f.timers)
	timer := f.timers[len(f.timers)-1]
	f.mu.Unlock()
	timer.f()
}

type testEnv struct {
	clock     time.Time
	dict      *dictionary.Dictionary
	catalog   *content.Catalog
	passages  *memPassages
	results   *memResults
	persister *recordingPersister
	vocab     *VocabularyService
	reading   *ReadingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dict, err := dictionary.New()
	require.NoError(t, err)
	catalog, err := content.NewCatalog()
	require.NoError(t, err)

	env := &testEnv{
		clock:     time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		dict:      dict,
		catalog:   catalog,
		passages:  newMemPassages(),
		results:   &memResults{},
		persister: &recordingPersister{},
	}
	now := func() time.Time { return env.clock }

	store := vocab.NewStore(srs.NewScheduler(nil), vocab.WithClock(now))
	env.vocab = NewVocabularyService(store, env.persister, dict, discardLogger())
	env.vocab.now = now
	env.reading = NewReadingService(catalog, env.passages, dict, env.vocab, discardLogger())
	return env
}
