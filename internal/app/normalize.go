package app

import (
	"math/rand"
	"strings"

	"study-session-service/internal/domain"
)

// NormalizeItems returns a copy of items in which every question offers its
// answer key among its options. Options are trimmed, blanks and duplicates
// dropped, and the key appended when missing. When rnd is non-nil the option
// order is shuffled afterwards.
func NormalizeItems(items []domain.Item, rnd *rand.Rand) []domain.Item {
	out := make([]domain.Item, len(items))
	for i, item := range items {
		item.ID = strings.TrimSpace(item.ID)
		item.AnswerKey = strings.TrimSpace(item.AnswerKey)
		if item.Kind != domain.KindQuestion {
			item.Options = nil
			out[i] = item
			continue
		}

		seen := make(map[string]struct{}, len(item.Options)+1)
		opts := make([]string, 0, len(item.Options)+1)
		for _, opt := range item.Options {
			opt = strings.TrimSpace(opt)
			if opt == "" {
				continue
			}
			if _, dup := seen[opt]; dup {
				continue
			}
			seen[opt] = struct{}{}
			opts = append(opts, opt)
		}
		if _, ok := seen[item.AnswerKey]; !ok && item.AnswerKey != "" {
			opts = append(opts, item.AnswerKey)
		}
		if rnd != nil {
			rnd.Shuffle(len(opts), func(a, b int) { opts[a], opts[b] = opts[b], opts[a] })
		}
		item.Options = opts
		out[i] = item
	}
	return out
}
