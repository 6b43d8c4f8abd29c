package app

import (
	"context"

	"study-session-service/internal/domain"
)

// Current returns the item at the cursor with its stored record, so that
// re-entering an answered item restores it. ok is false for an empty session.
func (s *Session) Current() (domain.ItemView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() (domain.ItemView, bool) {
	if len(s.items) == 0 {
		return domain.ItemView{}, false
	}
	item := s.items[s.cursor]
	view := domain.ItemView{Index: s.cursor, Item: item}
	if rec, ok := s.answers[item.ID]; ok {
		view.Answer = &rec
	}
	return view, true
}

// Cursor is the index of the current item.
func (s *Session) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// Next moves to the following item. On the last item it runs the completion
// gate instead; completed reports whether that finalized the session.
func (s *Session) Next(ctx context.Context) (completed bool, err error) {
	atEnd, err := s.advance()
	if err != nil || !atEnd {
		return false, err
	}
	if _, err := s.TrySubmit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) advance() (atEnd bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutableLocked(); err != nil {
		return false, err
	}
	if len(s.items) == 0 {
		return true, nil
	}
	if s.policy.RequireAnswer && !s.revealedLocked(s.cursor) {
		return false, domain.ErrAnswerRequired
	}
	if s.cursor == len(s.items)-1 {
		return true, nil
	}
	s.cursor++
	return false, nil
}

// Prev moves to the previous item, clamping at the first one unless the
// policy wraps around to the last.
func (s *Session) Prev() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.mutableLocked(); err != nil {
		return err
	}
	n := len(s.items)
	switch {
	case n == 0:
	case s.cursor > 0:
		s.cursor--
	case s.policy.WrapPrev:
		s.cursor = n - 1
	}
	return nil
}
