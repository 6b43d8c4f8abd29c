package app

import (
	"fmt"

	"study-session-service/internal/domain"
)

// GradeSubmission validates a full submission against the collection and
// returns the percentage of correct answers over all items. Submission sinks
// use it to compute the authoritative score.
func GradeSubmission(collection domain.Collection, answers []domain.SubmittedAnswer) (int, error) {
	kind := resolveKind(collection)
	items := append([]domain.Item(nil), collection.Items...)
	for i := range items {
		if items[i].Kind == "" {
			items[i].Kind = kind
		}
	}
	items = NormalizeItems(items, nil)

	byID := make(map[string]domain.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	seen := make(map[string]struct{}, len(answers))
	correct := 0
	for _, a := range answers {
		item, ok := byID[a.ItemID]
		if !ok {
			return 0, fmt.Errorf("%w: unknown item %q", domain.ErrValidation, a.ItemID)
		}
		if _, dup := seen[a.ItemID]; dup {
			return 0, fmt.Errorf("%w: item %q answered twice", domain.ErrValidation, a.ItemID)
		}
		seen[a.ItemID] = struct{}{}

		ok, err := EvaluatorFor(item.Kind).Evaluate(item, a.Answer)
		if err != nil {
			return 0, fmt.Errorf("%w: item %q: %w", domain.ErrValidation, a.ItemID, err)
		}
		if ok {
			correct++
		}
	}
	if len(seen) != len(items) {
		return 0, fmt.Errorf("%w: %d of %d items answered", domain.ErrValidation, len(seen), len(items))
	}
	return PercentCorrect(correct, len(items)), nil
}
