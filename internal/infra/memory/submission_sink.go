package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"study-session-service/internal/app"
	"study-session-service/internal/domain"
)

// Submission is a graded submission kept by SubmissionSink.
type Submission struct {
	ID           string
	CollectionID string
	Answers      []domain.SubmittedAnswer
	FinalScore   int
}

// SubmissionSink grades submissions in-process when no database is configured.
type SubmissionSink struct {
	loader CollectionLoader

	mu          sync.RWMutex
	submissions []Submission
}

func NewSubmissionSink(loader CollectionLoader) *SubmissionSink {
	return &SubmissionSink{loader: loader}
}

func (s *SubmissionSink) Submit(ctx context.Context, collectionID string, answers []domain.SubmittedAnswer) (domain.SubmissionResult, error) {
	collection, err := s.loader.LoadCollection(ctx, collectionID)
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	score, err := app.GradeSubmission(collection, answers)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	sub := Submission{
		ID:           uuid.NewString(),
		CollectionID: collectionID,
		Answers:      append([]domain.SubmittedAnswer(nil), answers...),
		FinalScore:   score,
	}
	s.mu.Lock()
	s.submissions = append(s.submissions, sub)
	s.mu.Unlock()
	return domain.SubmissionResult{SubmissionID: sub.ID, FinalScore: score}, nil
}

// Submissions returns every accepted submission for a collection.
func (s *SubmissionSink) Submissions(collectionID string) []Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Submission
	for _, sub := range s.submissions {
		if sub.CollectionID == collectionID {
			out = append(out, sub)
		}
	}
	return out
}
