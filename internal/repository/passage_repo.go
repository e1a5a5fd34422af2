package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ieltsreader/internal/database"
	"ieltsreader/internal/models"
)

// PassageRepository handles imported passages
type PassageRepository struct {
	db *database.DB
}

// NewPassageRepository creates a new passage repository
func NewPassageRepository(db *database.DB) *PassageRepository {
	return &PassageRepository{db: db}
}

// PassageFilter narrows List results
type PassageFilter struct {
	// Query matches a case-insensitive substring of the title
	Query string
	Limit uint64
}

const passageColumns = "id, title, paragraphs, question_instruction, questions, quiz, source_url, created_at"

// Save inserts or replaces an imported passage
func (r *PassageRepository) Save(ctx context.Context, p models.Passage) error {
	paragraphs, err := json.Marshal(p.Paragraphs)
	if err != nil {
		return fmt.Errorf("encode paragraphs: %w", err)
	}
	questions, err := json.Marshal(nonNil(p.Questions))
	if err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	quiz, err := json.Marshal(nonNil(p.Quiz))
	if err != nil {
		return fmt.Errorf("encode quiz: %w", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	return r.db.InTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM passages WHERE id = ?`, p.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO passages (`+passageColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, p.ID, p.Title, string(paragraphs), p.QuestionInstruction, string(questions), string(quiz), p.SourceURL, p.CreatedAt)
		return err
	})
}

// GetByID retrieves an imported passage
func (r *PassageRepository) GetByID(ctx context.Context, id string) (models.Passage, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+passageColumns+` FROM passages WHERE id = ?`, id)

	p, err := scanPassage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Passage{}, ErrNotFound
	}
	return p, err
}

// List returns imported passages, newest first
func (r *PassageRepository) List(ctx context.Context, filter PassageFilter) ([]models.Passage, error) {
	builder := r.db.Builder().
		Select(strings.Split(passageColumns, ", ")...).
		From("passages").
		OrderBy("created_at DESC", "id")

	if q := strings.TrimSpace(filter.Query); q != "" {
		builder = builder.Where(sq.Like{"LOWER(title)": "%" + strings.ToLower(q) + "%"})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build passage query: %w", err)
	}

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	passages := []models.Passage{}
	for rows.Next() {
		p, err := scanPassage(rows)
		if err != nil {
			return nil, err
		}
		passages = append(passages, p)
	}
	return passages, rows.Err()
}

// Delete removes an imported passage
func (r *PassageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM passages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPassage(row scanner) (models.Passage, error) {
	var (
		p                           models.Passage
		paragraphs, questions, quiz string
	)
	err := row.Scan(&p.ID, &p.Title, &paragraphs, &p.QuestionInstruction, &questions, &quiz, &p.SourceURL, &p.CreatedAt)
	if err != nil {
		return models.Passage{}, err
	}

	if err := json.Unmarshal([]byte(paragraphs), &p.Paragraphs); err != nil {
		return models.Passage{}, fmt.Errorf("passage %s paragraphs: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(questions), &p.Questions); err != nil {
		return models.Passage{}, fmt.Errorf("passage %s questions: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(quiz), &p.Quiz); err != nil {
		return models.Passage{}, fmt.Errorf("passage %s quiz: %w", p.ID, err)
	}
	if len(p.Quiz) == 0 {
		p.Quiz = nil
	}
	p.Source = models.PassageSourceImported
	return p, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
