package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"ieltsreader/internal/models"
	"ieltsreader/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData is the complete learner backup
type BackupData struct {
	Version     string              `json:"version"`
	ExportedAt  time.Time           `json:"exported_at"`
	Vocabulary  []models.SavedWord  `json:"vocabulary"`
	QuizResults []models.QuizResult `json:"quiz_results"`
	Passages    []models.Passage    `json:"passages"`
}

// ResultArchive is the quiz history a backup reads and restores
type ResultArchive interface {
	QuizResultStore
	ReplaceAll(ctx context.Context, results []models.QuizResult) error
}

// BackupService exports and imports saved words, quiz history and
// imported passages as one JSON document
type BackupService struct {
	vocab    *VocabularyService
	results  ResultArchive
	passages PassageStore
	logger   *slog.Logger
}

// NewBackupService creates a backup service. results and passages may be
// nil to back up vocabulary only.
func NewBackupService(vocab *VocabularyService, results ResultArchive, passages PassageStore, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupService{vocab: vocab, results: results, passages: passages, logger: logger}
}

// Snapshot collects everything a backup holds
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:     BackupVersion,
		ExportedAt:  time.Now().UTC(),
		Vocabulary:  s.vocab.List(),
		QuizResults: []models.QuizResult{},
		Passages:    []models.Passage{},
	}

	if s.results != nil {
		results, err := s.results.List(ctx, "", 0)
		if err != nil {
			return nil, fmt.Errorf("failed to export quiz results: %w", err)
		}
		backup.QuizResults = results
	}

	if s.passages != nil {
		passages, err := s.passages.List(ctx, repository.PassageFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to export passages: %w", err)
		}
		backup.Passages = passages
	}

	return backup, nil
}

// ExportToWriter writes the backup as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("backup exported",
		"words", len(backup.Vocabulary),
		"quiz_results", len(backup.QuizResults),
		"passages", len(backup.Passages))
	return nil
}

// Export writes the backup to outputPath
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	return file.Close()
}

// ImportMode selects how an import treats existing data
type ImportMode int

const (
	// ImportMerge keeps existing words and appends history
	ImportMerge ImportMode = iota
	// ImportReplace discards existing words and history first
	ImportReplace
)

// ImportFromReader restores a backup from r
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader, mode ImportMode) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	s.logger.Info("importing backup", "exported_at", backup.ExportedAt, "replace", mode == ImportReplace)

	if s.passages != nil {
		for _, p := range backup.Passages {
			p.Source = models.PassageSourceImported
			if err := s.passages.Save(ctx, p); err != nil {
				return fmt.Errorf("failed to import passage %s: %w", p.ID, err)
			}
		}
	}

	if s.results != nil {
		if mode == ImportReplace {
			if err := s.results.ReplaceAll(ctx, backup.QuizResults); err != nil {
				return fmt.Errorf("failed to import quiz results: %w", err)
			}
		} else {
			for _, qr := range backup.QuizResults {
				if _, err := s.results.Create(ctx, qr); err != nil {
					return fmt.Errorf("failed to import quiz results: %w", err)
				}
			}
		}
	}

	if mode == ImportReplace {
		s.vocab.Replace(backup.Vocabulary)
	} else {
		s.vocab.Merge(backup.Vocabulary)
	}

	s.logger.Info("backup imported",
		"words", len(backup.Vocabulary),
		"quiz_results", len(backup.QuizResults),
		"passages", len(backup.Passages))
	return nil
}

// Import restores a backup from inputPath
func (s *BackupService) Import(ctx context.Context, inputPath string, mode ImportMode) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file, mode)
}
