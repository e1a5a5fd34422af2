package vocab

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ieltsreader/internal/models"
)

type memKV struct {
	mu       sync.Mutex
	data     map[string]string
	getErr   error
	failSets int
	sets     int
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.failSets > 0 {
		m.failSets--
		return errors.New("disk full")
	}
	m.data[key] = value
	return nil
}

func (m *memKV) stored(t *testing.T) []models.SavedWord {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	var words []models.SavedWord
	require.NoError(t, json.Unmarshal([]byte(m.data[StorageKey]), &words))
	return words
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPersister_LoadTolerant(t *testing.T) {
	tests := []struct {
		name  string
		setup func(kv *memKV)
		want  int
	}{
		{name: "missing key", setup: func(kv *memKV) {}, want: 0},
		{name: "corrupt json", setup: func(kv *memKV) { kv.data[StorageKey] = "{not a list" }, want: 0},
		{name: "null", setup: func(kv *memKV) { kv.data[StorageKey] = "null" }, want: 0},
		{name: "read error", setup: func(kv *memKV) { kv.getErr = errors.New("locked") }, want: 0},
		{name: "valid", setup: func(kv *memKV) {
			kv.data[StorageKey] = `[{"id":"1","word":"heat","reviewBox":2}]`
		}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newMemKV()
			tt.setup(kv)
			p := NewPersister(kv, quietLogger())
			defer p.Close(context.Background())

			words := p.Load(context.Background())
			assert.NotNil(t, words)
			assert.Len(t, words, tt.want)
		})
	}
}

func TestPersister_SaveAndFlush(t *testing.T) {
	kv := newMemKV()
	p := NewPersister(kv, quietLogger())
	defer p.Close(context.Background())

	require.NoError(t, p.Save([]models.SavedWord{{ID: "1", Word: "alpha"}}))
	require.NoError(t, p.Save([]models.SavedWord{{ID: "1", Word: "alpha"}, {ID: "2", Word: "beta"}}))
	require.NoError(t, p.Flush(context.Background()))

	words := kv.stored(t)
	require.Len(t, words, 2)
	assert.Equal(t, "beta", words[1].Word)
}

func TestPersister_SaveRoundTripsThroughLoad(t *testing.T) {
	kv := newMemKV()
	p := NewPersister(kv, quietLogger())

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	in := []models.SavedWord{{ID: "1", Word: "alpha", Synonyms: []string{"first"}, ReviewBox: 3, NextReviewAt: at, CreatedAt: at}}
	require.NoError(t, p.Save(in))
	require.NoError(t, p.Close(context.Background()))

	assert.Equal(t, in, NewPersister(kv, quietLogger()).Load(context.Background()))
}

func TestPersister_RetriesFailedWrites(t *testing.T) {
	kv := newMemKV()
	kv.failSets = 2
	p := NewPersister(kv, quietLogger(), WithRetry(3, time.Millisecond))
	defer p.Close(context.Background())

	require.NoError(t, p.Save([]models.SavedWord{{ID: "1", Word: "alpha"}}))
	require.NoError(t, p.Flush(context.Background()))

	assert.Eventually(t, func() bool {
		kv.mu.Lock()
		defer kv.mu.Unlock()
		_, ok := kv.data[StorageKey]
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestPersister_ReportsExhaustedRetries(t *testing.T) {
	kv := newMemKV()
	kv.failSets = 10
	errs := make(chan error, 1)
	p := NewPersister(kv, quietLogger(), WithRetry(2, time.Millisecond), WithErrorHandler(func(err error) { errs <- err }))
	defer p.Close(context.Background())

	require.NoError(t, p.Save([]models.SavedWord{{ID: "1", Word: "alpha"}}))

	select {
	case err := <-errs:
		assert.ErrorContains(t, err, "disk full")
	case <-time.After(time.Second):
		t.Fatal("expected the error handler to be called")
	}
}

func TestPersister_CloseReturnsBackgroundWriteFailure(t *testing.T) {
	kv := newMemKV()
	kv.failSets = 1000
	failed := make(chan struct{}, 1)
	p := NewPersister(kv, quietLogger(), WithRetry(2, time.Millisecond), WithErrorHandler(func(error) { failed <- struct{}{} }))

	require.NoError(t, p.Save([]models.SavedWord{{ID: "1", Word: "alpha"}}))

	select {
	case <-failed:
	case <-time.After(time.Second):
		t.Fatal("background write did not run")
	}

	assert.ErrorContains(t, p.Flush(context.Background()), "disk full")
	assert.ErrorContains(t, p.Close(context.Background()), "disk full")
	assert.ErrorContains(t, p.Close(context.Background()), "disk full")
}

func TestPersister_SuccessfulWriteClearsFailure(t *testing.T) {
	kv := newMemKV()
	kv.failSets = 1
	p := NewPersister(kv, quietLogger(), WithRetry(1, time.Millisecond))
	defer p.Close(context.Background())

	require.NoError(t, p.Save([]models.SavedWord{{ID: "1", Word: "alpha"}}))
	require.ErrorContains(t, p.Flush(context.Background()), "disk full")

	require.NoError(t, p.Save([]models.SavedWord{{ID: "1", Word: "alpha"}, {ID: "2", Word: "beta"}}))
	require.NoError(t, p.Flush(context.Background()))
	assert.Len(t, kv.stored(t), 2)
}

func TestPersister_SaveAfterClose(t *testing.T) {
	p := NewPersister(newMemKV(), quietLogger())
	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()))

	assert.ErrorIs(t, p.Save(nil), ErrPersisterClosed)
}
