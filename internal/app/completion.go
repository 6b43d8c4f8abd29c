package app

import (
	"context"
	"fmt"

	"study-session-service/internal/domain"
)

// TrySubmit validates that every item is answered and finalizes the session.
// Remote policies finish only after the submission sink accepts the answers;
// a sink failure leaves the session resumable. Submitting a finished session
// returns the frozen score without announcing it again.
func (s *Session) TrySubmit(ctx context.Context) (domain.Score, error) {
	s.mu.Lock()
	if s.finished {
		score := *s.score
		s.mu.Unlock()
		return score, nil
	}
	if s.pending {
		s.mu.Unlock()
		return domain.Score{}, domain.ErrSubmissionPending
	}
	total := len(s.items)
	if missing := total - AnsweredCount(s.answers); missing > 0 {
		s.mu.Unlock()
		return domain.Score{}, &domain.IncompleteSubmissionError{Missing: missing, Total: total}
	}
	if !s.policy.Remote || s.sink == nil || total == 0 {
		score := s.finalizeLocked(nil)
		s.mu.Unlock()
		return score, nil
	}

	answers := make([]domain.SubmittedAnswer, 0, total)
	for _, item := range s.items {
		answers = append(answers, domain.SubmittedAnswer{ItemID: item.ID, Answer: s.answers[item.ID].Selected})
	}
	s.pending = true
	s.mu.Unlock()

	result, err := s.sink.Submit(ctx, s.collectionID, answers)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	if err != nil {
		return domain.Score{}, fmt.Errorf("%w: %w", domain.ErrSubmissionFailure, err)
	}
	serverScore := result.FinalScore
	return s.finalizeLocked(&serverScore), nil
}

// finalizeLocked freezes the score and announces completion once per
// completion; Restart re-arms the announcement.
func (s *Session) finalizeLocked(serverScore *int) domain.Score {
	correct := CorrectCount(s.answers)
	score := domain.Score{
		Correct:     correct,
		Total:       len(s.items),
		Percent:     PercentCorrect(correct, len(s.items)),
		ServerScore: serverScore,
		CompletedAt: s.now(),
	}
	s.finished = true
	s.score = &score

	if !s.announced {
		s.announced = true
		s.broadcastLocked(domain.Completion{
			SessionID: s.id,
			Score:     score,
			Celebrate: s.policy.celebrates(score.Percent),
		})
	}
	return score
}
