package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"study-session-service/internal/app"
	"study-session-service/internal/domain"
)

// SubmissionSink grades quiz submissions against the stored collection and
// records them in the submissions table.
type SubmissionSink struct {
	pool *pgxpool.Pool
}

func NewSubmissionSink(pool *pgxpool.Pool) *SubmissionSink {
	return &SubmissionSink{pool: pool}
}

func (s *SubmissionSink) Submit(ctx context.Context, collectionID string, answers []domain.SubmittedAnswer) (domain.SubmissionResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("begin submission: %w: %w", domain.ErrNetwork, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	collection, err := loadCollection(ctx, tx, collectionID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	score, err := app.GradeSubmission(collection, answers)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	data, err := json.Marshal(answers)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("marshal answers: %w", err)
	}
	id := uuid.NewString()
	if _, err := tx.Exec(ctx, `INSERT INTO submissions (id, collection_id, answers, final_score) VALUES ($1, $2, $3::jsonb, $4)`,
		id, collectionID, string(data), score); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("insert submission: %w: %w", domain.ErrNetwork, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("commit submission: %w: %w", domain.ErrNetwork, err)
	}
	return domain.SubmissionResult{SubmissionID: id, FinalScore: score}, nil
}
