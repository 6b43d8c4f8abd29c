package app

import (
	"strings"

	"study-session-service/internal/domain"
)

// Evaluator decides whether a recorded value answers an item correctly.
type Evaluator interface {
	Evaluate(item domain.Item, value string) (bool, error)
}

// ExactMatch grades questions: the value must be one of the offered options
// and is correct when it equals the answer key.
type ExactMatch struct{}

func (ExactMatch) Evaluate(item domain.Item, value string) (bool, error) {
	value = strings.TrimSpace(value)
	for _, opt := range item.Options {
		if opt == value {
			return value == item.AnswerKey, nil
		}
	}
	return false, domain.ErrOptionNotFound
}

// SelfAssessment grades flashcards from the learner's own correct/incorrect mark.
type SelfAssessment struct{}

func (SelfAssessment) Evaluate(_ domain.Item, value string) (bool, error) {
	switch strings.TrimSpace(value) {
	case domain.RatingCorrect:
		return true, nil
	case domain.RatingIncorrect:
		return false, nil
	}
	return false, domain.ErrInvalidRating
}

// resolveKind picks the variant of a collection: its own kind, else the
// first item's, else question.
func resolveKind(collection domain.Collection) domain.ItemKind {
	if collection.Kind != "" {
		return collection.Kind
	}
	if len(collection.Items) > 0 && collection.Items[0].Kind != "" {
		return collection.Items[0].Kind
	}
	return domain.KindQuestion
}

// EvaluatorFor returns the grading strategy for an item variant.
func EvaluatorFor(kind domain.ItemKind) Evaluator {
	if kind == domain.KindFlashcard {
		return SelfAssessment{}
	}
	return ExactMatch{}
}

// Policy holds the per-variant rules of the session engine.
type Policy struct {
	Evaluator Evaluator
	// RequireAnswer blocks Next until the current item is revealed.
	RequireAnswer bool
	// WrapPrev makes Prev on the first item jump to the last one.
	WrapPrev bool
	// Remote finalizes through the submission sink instead of locally.
	Remote bool
	// CelebrateAt is the final percentage that earns the one-shot reward.
	// Zero disables it.
	CelebrateAt int
	// Shuffle randomizes question option order at session start.
	Shuffle bool
}

// DefaultCelebrateAt is shared by both variants.
const DefaultCelebrateAt = 80

// QuizPolicy: answer before advancing, clamp at the first item, server-side finalize.
func QuizPolicy() Policy {
	return Policy{
		Evaluator:     ExactMatch{},
		RequireAnswer: true,
		Remote:        true,
		CelebrateAt:   DefaultCelebrateAt,
		Shuffle:       true,
	}
}

// FlashcardPolicy: free navigation with wrap-around, local finalize.
func FlashcardPolicy() Policy {
	return Policy{
		Evaluator:   SelfAssessment{},
		WrapPrev:    true,
		CelebrateAt: DefaultCelebrateAt,
	}
}

// PolicyFor returns the default policy for an item variant.
func PolicyFor(kind domain.ItemKind) Policy {
	if kind == domain.KindFlashcard {
		return FlashcardPolicy()
	}
	return QuizPolicy()
}

func (p Policy) celebrates(percent int) bool {
	return p.CelebrateAt > 0 && percent >= p.CelebrateAt
}
