package vocab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ieltsreader/internal/models"
)

// StorageKey is the key-value entry holding the serialized word list
const StorageKey = "vocabulary.saved_words"

// ErrPersisterClosed is returned by Save after Close
var ErrPersisterClosed = errors.New("vocabulary persister closed")

// KV is the key-value persistence the word list round-trips through
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Persister loads the word list once at startup and writes snapshots in
// the background. Only the latest pending snapshot is written.
type Persister struct {
	kv     KV
	logger *slog.Logger

	attempts     int
	backoff      time.Duration
	writeTimeout time.Duration

	mu         sync.Mutex
	pending    []models.SavedWord
	hasPending bool
	closed     bool
	// lastErr is the failure of the most recent write; a later successful
	// write clears it
	lastErr error

	writeMu sync.Mutex
	kick    chan struct{}
	done    chan struct{}

	onError func(error)
}

// PersisterOption configures a Persister
type PersisterOption func(*Persister)

// WithRetry sets the number of write attempts and the delay between them
func WithRetry(attempts int, backoff time.Duration) PersisterOption {
	return func(p *Persister) {
		if attempts > 0 {
			p.attempts = attempts
		}
		p.backoff = backoff
	}
}

// WithErrorHandler sets a callback for background writes that fail after
// all retries
func WithErrorHandler(fn func(error)) PersisterOption {
	return func(p *Persister) {
		p.onError = fn
	}
}

// NewPersister starts the background writer
func NewPersister(kv KV, logger *slog.Logger, opts ...PersisterOption) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Persister{
		kv:           kv,
		logger:       logger,
		attempts:     3,
		backoff:      200 * time.Millisecond,
		writeTimeout: 10 * time.Second,
		kick:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	go p.loop()
	return p
}

// Load reads the stored list. Missing, unreadable or corrupt data yields
// an empty list and a warning rather than an error.
func (p *Persister) Load(ctx context.Context) []models.SavedWord {
	raw, found, err := p.kv.Get(ctx, StorageKey)
	if err != nil {
		p.logger.Warn("vocabulary load failed, starting empty", "error", err)
		return []models.SavedWord{}
	}
	if !found || raw == "" {
		return []models.SavedWord{}
	}

	var words []models.SavedWord
	if err := json.Unmarshal([]byte(raw), &words); err != nil {
		p.logger.Warn("stored vocabulary is corrupt, starting empty", "error", err, "bytes", len(raw))
		return []models.SavedWord{}
	}
	if words == nil {
		words = []models.SavedWord{}
	}
	return words
}

// Save queues words for writing and returns immediately
func (p *Persister) Save(words []models.SavedWord) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPersisterClosed
	}
	p.pending = words
	p.hasPending = true
	p.mu.Unlock()

	select {
	case p.kick <- struct{}{}:
	default:
	}
	return nil
}

func (p *Persister) take() ([]models.SavedWord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasPending {
		return nil, false
	}
	words := p.pending
	p.pending = nil
	p.hasPending = false
	return words, true
}

func (p *Persister) loop() {
	for {
		select {
		case <-p.kick:
			ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
			if err := p.writePending(ctx); err != nil {
				p.logger.Error("vocabulary save failed", "error", err)
				if p.onError != nil {
					p.onError(err)
				}
			}
			cancel()
		case <-p.done:
			return
		}
	}
}

// writePending serializes with Flush so snapshots land in queue order
func (p *Persister) writePending(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	words, ok := p.take()
	if !ok {
		return nil
	}
	err := p.write(ctx, words)

	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
	return err
}

func (p *Persister) write(ctx context.Context, words []models.SavedWord) error {
	if words == nil {
		words = []models.SavedWord{}
	}
	data, err := json.Marshal(words)
	if err != nil {
		return fmt.Errorf("encode vocabulary: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if lastErr = p.kv.Set(ctx, StorageKey, string(data)); lastErr == nil {
			return nil
		}
		p.logger.Warn("vocabulary write attempt failed", "attempt", attempt, "error", lastErr)
		if attempt == p.attempts {
			break
		}
		select {
		case <-time.After(p.backoff * time.Duration(attempt)):
		case <-ctx.Done():
			return fmt.Errorf("write vocabulary: %w", ctx.Err())
		}
	}
	return fmt.Errorf("write vocabulary after %d attempts: %w", p.attempts, lastErr)
}

// Flush writes any pending snapshot before returning. It reports the
// failure of the latest write even when that write ran in the background.
func (p *Persister) Flush(ctx context.Context) error {
	if err := p.writePending(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Close stops the background writer and flushes the last snapshot. A
// second Close only reports the outcome of the last write.
func (p *Persister) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		err := p.lastErr
		p.mu.Unlock()
		return err
	}
	p.closed = true
	p.mu.Unlock()

	close(p.done)
	return p.Flush(ctx)
}
