package app

import (
	"math"

	"study-session-service/internal/domain"
)

// CorrectCount is the number of records marked correct.
func CorrectCount(answers map[string]domain.AnswerRecord) int {
	n := 0
	for _, rec := range answers {
		if rec.IsCorrect {
			n++
		}
	}
	return n
}

// AnsweredCount is the number of records present, correct or not.
func AnsweredCount(answers map[string]domain.AnswerRecord) int {
	return len(answers)
}

// PercentCorrect rounds correct/denominator to a whole percentage. A zero
// denominator scores 0.
func PercentCorrect(correct, denominator int) int {
	if denominator <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(denominator) * 100))
}

// CorrectCount counts correct answers in the session.
func (s *Session) CorrectCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CorrectCount(s.answers)
}

// AnsweredCount counts answered items in the session.
func (s *Session) AnsweredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AnsweredCount(s.answers)
}

// FinalPercent scores against every item in the session.
func (s *Session) FinalPercent() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return PercentCorrect(CorrectCount(s.answers), len(s.items))
}

// Accuracy scores against answered items only ("accuracy so far").
func (s *Session) Accuracy() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return PercentCorrect(CorrectCount(s.answers), AnsweredCount(s.answers))
}
