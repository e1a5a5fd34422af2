// Package audio generates and caches pronunciation clips for words.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"ieltsreader/internal/text"
)

// ErrInvalidWord is returned for words that normalize to nothing
var ErrInvalidWord = errors.New("word has no pronounceable text")

// Synthesizer turns text into MP3 bytes
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// TTSService caches synthesized clips on disk, one file per word
type TTSService struct {
	audioDir string
	voice    string
	synth    Synthesizer
	logger   *slog.Logger

	// mu serializes generation so concurrent taps on one word fetch once
	mu sync.Mutex
}

// NewTTSService creates a new TTS service writing into audioDir
func NewTTSService(audioDir, voice string, synth Synthesizer, logger *slog.Logger) *TTSService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TTSService{
		audioDir: audioDir,
		voice:    voice,
		synth:    synth,
		logger:   logger,
	}
}

// Filename returns the cache file name for a word
func Filename(word string) (string, error) {
	key := text.Normalize(word)
	if key == "" {
		return "", ErrInvalidWord
	}
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, key)
	return fmt.Sprintf("word_%s.mp3", safe), nil
}

// AudioPath returns the path of the clip for word, synthesizing it first
// when it is not cached yet
func (s *TTSService) AudioPath(ctx context.Context, word string) (string, error) {
	filename, err := Filename(word)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.audioDir, filename)

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	data, err := s.synth.Synthesize(ctx, text.Normalize(word), s.voice)
	if err != nil {
		return "", fmt.Errorf("failed to generate audio: %w", err)
	}

	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	s.logger.Info("audio generated", "word", word, "bytes", len(data))
	return path, nil
}

// DeleteAudioFile removes the cached clip for word
func (s *TTSService) DeleteAudioFile(word string) error {
	filename, err := Filename(word)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.audioDir, filename))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// GetAllAudioFiles returns the names of all MP3 files in the audio directory
func (s *TTSService) GetAllAudioFiles() ([]string, error) {
	files, err := os.ReadDir(s.audioDir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read audio directory: %w", err)
	}

	audioFiles := []string{}
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == ".mp3" {
			audioFiles = append(audioFiles, file.Name())
		}
	}
	return audioFiles, nil
}
