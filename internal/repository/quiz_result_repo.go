package repository

import (
	"context"
	"fmt"

	"ieltsreader/internal/database"
	"ieltsreader/internal/models"
)

// QuizResultRepository handles finished quiz sessions
type QuizResultRepository struct {
	db *database.DB
}

// NewQuizResultRepository creates a new quiz result repository
func NewQuizResultRepository(db *database.DB) *QuizResultRepository {
	return &QuizResultRepository{db: db}
}

// Create records a finished session and returns it with its id
func (r *QuizResultRepository) Create(ctx context.Context, result models.QuizResult) (models.QuizResult, error) {
	query := `
		INSERT INTO quiz_results (passage_id, score, total, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?)
	`

	id, err := r.db.ExecReturningID(ctx, query,
		result.PassageID, result.Score, result.Total, result.StartedAt.UTC(), result.CompletedAt.UTC())
	if err != nil {
		return models.QuizResult{}, fmt.Errorf("insert quiz result: %w", err)
	}
	result.ID = id
	return result, nil
}

// List returns results newest first. passageID filters when non-empty;
// limit 0 means no limit.
func (r *QuizResultRepository) List(ctx context.Context, passageID string, limit uint64) ([]models.QuizResult, error) {
	builder := r.db.Builder().
		Select("id", "passage_id", "score", "total", "started_at", "completed_at").
		From("quiz_results").
		OrderBy("completed_at DESC", "id DESC")

	if passageID != "" {
		builder = builder.Where("passage_id = ?", passageID)
	}
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build quiz result query: %w", err)
	}

	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []models.QuizResult{}
	for rows.Next() {
		var qr models.QuizResult
		if err := rows.Scan(&qr.ID, &qr.PassageID, &qr.Score, &qr.Total, &qr.StartedAt, &qr.CompletedAt); err != nil {
			return nil, err
		}
		results = append(results, qr)
	}
	return results, rows.Err()
}

// ReplaceAll deletes every result and inserts results in one transaction.
// Ids are reassigned.
func (r *QuizResultRepository) ReplaceAll(ctx context.Context, results []models.QuizResult) error {
	return r.db.InTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_results`); err != nil {
			return err
		}
		for _, qr := range results {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO quiz_results (passage_id, score, total, started_at, completed_at)
				VALUES (?, ?, ?, ?, ?)
			`, qr.PassageID, qr.Score, qr.Total, qr.StartedAt.UTC(), qr.CompletedAt.UTC())
			if err != nil {
				return fmt.Errorf("insert quiz result: %w", err)
			}
		}
		return nil
	})
}
