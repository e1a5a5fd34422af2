package quiz

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ieltsreader/internal/models"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (f *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{d: d, f: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *fakeScheduler) last(t *testing.T) *fakeTimer {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.timers)
	return f.timers[len(f.timers)-1]
}

func testItems(n int) []models.QuizItem {
	items := make([]models.QuizItem, n)
	for i := range items {
		items[i] = models.QuizItem{
			Word:               fmt.Sprintf("word%d", i),
			Question:           fmt.Sprintf("What does word%d mean?", i),
			Options:            []string{"a", "b", "c", "d"},
			CorrectOptionIndex: i % 4,
			Explanation:        "because",
		}
	}
	return items
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *fakeScheduler) {
	t.Helper()
	fs := &fakeScheduler{}
	base := []Option{WithSeed(7), WithAfterFunc(fs.AfterFunc)}
	return NewSession(append(base, opts...)...), fs
}

func currentItem(t *testing.T, s *Session) models.QuizItem {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[s.index]
}

func wrongOption(item models.QuizItem) int {
	return (item.CorrectOptionIndex + 1) % len(item.Options)
}

func TestSession_ScoresTwoOfThree(t *testing.T) {
	var results []Result
	s, _ := newTestSession(t, OnComplete(func(r Result) { results = append(results, r) }))

	require.NoError(t, s.Start(testItems(3)))
	assert.Equal(t, StatePlaying, s.State())

	answers := []bool{true, false, true}
	for _, correct := range answers {
		item := currentItem(t, s)
		choice := item.CorrectOptionIndex
		if !correct {
			choice = wrongOption(item)
		}
		outcome, err := s.Answer(choice)
		require.NoError(t, err)
		assert.True(t, outcome.Accepted)
		assert.Equal(t, correct, outcome.Correct)
		require.NoError(t, s.Advance())
	}

	snap := s.Snapshot()
	assert.Equal(t, StateResult, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 2, snap.Result.Score)
	assert.Equal(t, 3, snap.Result.Total)

	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Score)
}

func TestSession_SingleAnswerGuard(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.Start(testItems(2)))

	item := currentItem(t, s)
	first, err := s.Answer(wrongOption(item))
	require.NoError(t, err)
	assert.True(t, first.Accepted)
	assert.False(t, first.Correct)

	second, err := s.Answer(item.CorrectOptionIndex)
	require.NoError(t, err)
	assert.False(t, second.Accepted)
	assert.False(t, second.Correct)

	assert.Equal(t, 0, s.Snapshot().Score)
}

func TestSession_StartWithoutItemsStaysInSetup(t *testing.T) {
	s, _ := newTestSession(t)

	assert.ErrorIs(t, s.Start(nil), ErrNoQuizItems)
	assert.ErrorIs(t, s.Start([]models.QuizItem{}), ErrNoQuizItems)
	assert.Equal(t, StateSetup, s.State())
}

func TestSession_StartTwice(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.Start(testItems(1)))

	assert.ErrorIs(t, s.Start(testItems(1)), ErrAlreadyActive)
}

func TestSession_InvalidOption(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.Start(testItems(1)))

	_, err := s.Answer(4)
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = s.Answer(-1)
	assert.ErrorIs(t, err, ErrInvalidOption)

	assert.False(t, s.Snapshot().Answered)
}

func TestSession_NotPlaying(t *testing.T) {
	s, _ := newTestSession(t)

	_, err := s.Answer(0)
	assert.ErrorIs(t, err, ErrNotPlaying)
	assert.ErrorIs(t, s.Advance(), ErrNotPlaying)
}

func TestSession_AutoAdvance(t *testing.T) {
	s, fs := newTestSession(t, WithAutoAdvance(2*time.Second))
	require.NoError(t, s.Start(testItems(2)))

	_, err := s.Answer(0)
	require.NoError(t, err)

	timer := fs.last(t)
	assert.Equal(t, 2*time.Second, timer.d)

	timer.f()
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.False(t, snap.Answered)
}

func TestSession_ManualAdvanceCancelsTimer(t *testing.T) {
	s, fs := newTestSession(t)
	require.NoError(t, s.Start(testItems(3)))

	_, err := s.Answer(0)
	require.NoError(t, err)
	timer := fs.last(t)

	require.NoError(t, s.Advance())
	assert.True(t, timer.stopped)

	// a timer that fires anyway must not skip the item we just reached
	timer.f()
	assert.Equal(t, 1, s.Snapshot().Index)
}

func TestSession_ResetFromPlayingCancelsTimer(t *testing.T) {
	completed := 0
	s, fs := newTestSession(t, OnComplete(func(Result) { completed++ }))
	require.NoError(t, s.Start(testItems(1)))

	_, err := s.Answer(0)
	require.NoError(t, err)
	timer := fs.last(t)

	s.Reset()
	assert.True(t, timer.stopped)
	assert.Equal(t, StateSetup, s.State())

	timer.f()
	assert.Equal(t, StateSetup, s.State())
	assert.Equal(t, 0, completed)
}

func TestSession_ResetFromResultAllowsNewSession(t *testing.T) {
	s, _ := newTestSession(t, WithAutoAdvance(0))
	require.NoError(t, s.Start(testItems(1)))
	require.NoError(t, s.Advance())
	require.Equal(t, StateResult, s.State())

	s.Reset()
	snap := s.Snapshot()
	assert.Equal(t, StateSetup, snap.State)
	assert.Zero(t, snap.Total)
	assert.Nil(t, snap.Result)

	require.NoError(t, s.Start(testItems(2)))
	assert.Equal(t, StatePlaying, s.State())
}

func TestSession_ZeroAutoAdvanceSchedulesNothing(t *testing.T) {
	s, fs := newTestSession(t, WithAutoAdvance(0))
	require.NoError(t, s.Start(testItems(1)))
	_, err := s.Answer(0)
	require.NoError(t, err)

	assert.Empty(t, fs.timers)
}

func TestSession_SnapshotHidesAnswerUntilAnswered(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.Start(testItems(1)))

	snap := s.Snapshot()
	require.NotNil(t, snap.Item)
	assert.Nil(t, snap.Item.CorrectOptionIndex)
	assert.Nil(t, snap.SelectedIndex)

	_, err := s.Answer(2)
	require.NoError(t, err)

	snap = s.Snapshot()
	require.NotNil(t, snap.Item.CorrectOptionIndex)
	require.NotNil(t, snap.SelectedIndex)
	assert.Equal(t, 2, *snap.SelectedIndex)
	assert.Equal(t, "because", snap.Item.Explanation)
}

func TestSession_SeededShuffleIsDeterministic(t *testing.T) {
	order := func() []string {
		s := NewSession(WithSeed(42), WithAutoAdvance(0))
		require.NoError(t, s.Start(testItems(8)))
		s.mu.Lock()
		defer s.mu.Unlock()
		words := make([]string, len(s.items))
		for i, it := range s.items {
			words[i] = it.Word
		}
		return words
	}

	first := order()
	assert.Equal(t, first, order())
	assert.ElementsMatch(t, []string{"word0", "word1", "word2", "word3", "word4", "word5", "word6", "word7"}, first)
}

func TestSession_StartCopiesItems(t *testing.T) {
	items := testItems(3)
	s, _ := newTestSession(t)
	require.NoError(t, s.Start(items))

	assert.Equal(t, "word0", items[0].Word)
	assert.Equal(t, "word1", items[1].Word)
	assert.Equal(t, "word2", items[2].Word)
}
