package app

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"study-session-service/internal/domain"
)

// Session tracks one learner's progress through an ordered item collection.
// Items are fixed for the lifetime of the session; Restart clears progress
// but keeps them.
type Session struct {
	id           string
	collectionID string
	name         string
	kind         domain.ItemKind
	policy       Policy
	sink         SubmissionSink
	now          func() time.Time
	createdAt    time.Time

	mu          sync.RWMutex
	items       []domain.Item
	index       map[string]int
	answers     map[string]domain.AnswerRecord
	cursor      int
	finished    bool
	pending     bool
	score       *domain.Score
	announced   bool
	subscribers map[chan domain.Completion]struct{}
}

// SessionOption customizes NewSession.
type SessionOption func(*Session)

// WithSubmissionSink sets where remote-policy sessions are finalized.
func WithSubmissionSink(sink SubmissionSink) SessionOption {
	return func(s *Session) { s.sink = sink }
}

// WithClock allows deterministic timestamps in tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession initializes a session over the collection's items. An empty
// collection yields a valid empty session.
func NewSession(id string, collection domain.Collection, policy Policy, opts ...SessionOption) (*Session, error) {
	kind := resolveKind(collection)
	if policy.Evaluator == nil {
		policy.Evaluator = EvaluatorFor(kind)
	}

	s := &Session{
		id:           id,
		collectionID: collection.ID,
		name:         collection.Name,
		kind:         kind,
		policy:       policy,
		now:          time.Now,
		answers:      make(map[string]domain.AnswerRecord),
		subscribers:  make(map[chan domain.Completion]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.createdAt = s.now()

	var rnd *rand.Rand
	if policy.Shuffle {
		rnd = rand.New(rand.NewSource(s.now().UnixNano()))
	}
	items := make([]domain.Item, len(collection.Items))
	for i, item := range collection.Items {
		if item.Kind == "" {
			item.Kind = kind
		}
		if item.Kind != kind {
			return nil, fmt.Errorf("item %q is a %s in a %s collection: %w", item.ID, item.Kind, kind, domain.ErrValidation)
		}
		items[i] = item
	}
	s.items = NormalizeItems(items, rnd)
	s.index = make(map[string]int, len(s.items))
	for i, item := range s.items {
		if _, dup := s.index[item.ID]; dup {
			return nil, fmt.Errorf("item %q: %w", item.ID, domain.ErrDuplicateItem)
		}
		s.index[item.ID] = i
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }
func (s *Session) CollectionID() string { return s.collectionID }
func (s *Session) Kind() domain.ItemKind { return s.kind }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) Len() int { return len(s.items) }
func (s *Session) Items() []domain.Item { return append([]domain.Item(nil), s.items...) }

// RecordAnswer stores the learner's answer for an item and reveals it. The
// first answer per item is final: a revealed item returns its existing record
// with ErrAlreadyAnswered.
func (s *Session) RecordAnswer(itemID, value string) (domain.AnswerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutableLocked(); err != nil {
		return domain.AnswerRecord{}, err
	}
	idx, ok := s.index[itemID]
	if !ok {
		return domain.AnswerRecord{}, domain.ErrItemNotFound
	}
	if rec, ok := s.answers[itemID]; ok && rec.Revealed {
		return rec, domain.ErrAlreadyAnswered
	}

	correct, err := s.policy.Evaluator.Evaluate(s.items[idx], value)
	if err != nil {
		return domain.AnswerRecord{}, err
	}
	rec := domain.AnswerRecord{
		ItemID:    itemID,
		Selected:  strings.TrimSpace(value),
		Revealed:  true,
		IsCorrect: correct,
	}
	s.answers[itemID] = rec
	return rec, nil
}

// MarkFlashcard records a self-assessment.
func (s *Session) MarkFlashcard(itemID string, correct bool) (domain.AnswerRecord, error) {
	rating := domain.RatingIncorrect
	if correct {
		rating = domain.RatingCorrect
	}
	return s.RecordAnswer(itemID, rating)
}

// Answer returns the stored record for an item.
func (s *Session) Answer(itemID string) (domain.AnswerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.answers[itemID]
	return rec, ok
}

// Restart clears answers, cursor, completion and the celebration latch.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return domain.ErrSubmissionPending
	}
	s.answers = make(map[string]domain.AnswerRecord)
	s.cursor = 0
	s.finished = false
	s.score = nil
	s.announced = false
	return nil
}

// Finished reports whether the session has been finalized.
func (s *Session) Finished() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finished
}

// Score returns the frozen final score once the session is finished.
func (s *Session) Score() (domain.Score, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.score == nil {
		return domain.Score{}, false
	}
	return *s.score, true
}

// Snapshot recomputes the read model from the current state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.Snapshot{
		SessionID:    s.id,
		CollectionID: s.collectionID,
		Kind:         s.kind,
		Total:        len(s.items),
		Cursor:       s.cursor,
		Answered:     AnsweredCount(s.answers),
		Correct:      CorrectCount(s.answers),
		Finished:     s.finished,
		Pending:      s.pending,
		Answers:      make([]domain.AnswerRecord, 0, len(s.answers)),
	}
	snap.Accuracy = PercentCorrect(snap.Correct, snap.Answered)
	if view, ok := s.currentLocked(); ok {
		snap.Current = &view
	}
	if s.score != nil {
		score := *s.score
		snap.Score = &score
	}
	for _, item := range s.items {
		if rec, ok := s.answers[item.ID]; ok {
			snap.Answers = append(snap.Answers, rec)
		}
	}
	return snap
}

// Material describes the whole collection as an assistant context entry.
func (s *Session) Material() domain.Material {
	kind := "quiz"
	if s.kind == domain.KindFlashcard {
		kind = "flashcards"
	}
	name := s.name
	if name == "" {
		name = s.collectionID
	}
	return domain.Material{
		ID:                 kind + ":" + s.collectionID,
		DisplayName:        name,
		Kind:               kind,
		SourceCollectionID: s.collectionID,
	}
}

// Subscribe returns a channel that receives the session's completion events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.Completion, func()) {
	ch := make(chan domain.Completion, 4)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked(c domain.Completion) {
	for ch := range s.subscribers {
		select {
		case ch <- c:
		default:
			// drop the oldest event so a slow reader never blocks finalize
			select {
			case <-ch:
			default:
			}
			ch <- c
		}
	}
}

func (s *Session) mutableLocked() error {
	if s.pending {
		return domain.ErrSubmissionPending
	}
	if s.finished {
		return domain.ErrSessionFinished
	}
	return nil
}

func (s *Session) revealedLocked(idx int) bool {
	rec, ok := s.answers[s.items[idx].ID]
	return ok && rec.Revealed
}
