package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"study-session-service/internal/domain"
)

// SessionRepository abstracts where open sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// CollectionRepository loads collection content (from cache/backing store).
type CollectionRepository interface {
	GetCollection(ctx context.Context, collectionID string) (domain.Collection, error)
}

// SubmissionSink accepts the answers of a finished quiz and returns the
// server's score.
type SubmissionSink interface {
	Submit(ctx context.Context, collectionID string, answers []domain.SubmittedAnswer) (domain.SubmissionResult, error)
}

// StudyService opens and tracks study sessions.
type StudyService struct {
	sessions    SessionRepository
	collections CollectionRepository
	sink        SubmissionSink
	policies    map[domain.ItemKind]Policy
	logger      *slog.Logger
	newID       func() string
}

// ServiceOption customizes NewStudyService.
type ServiceOption func(*StudyService)

// WithPolicy overrides the default policy of an item variant.
func WithPolicy(kind domain.ItemKind, policy Policy) ServiceOption {
	return func(s *StudyService) { s.policies[kind] = policy }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *StudyService) { s.logger = logger }
}

// WithIDGenerator makes session IDs deterministic in tests.
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *StudyService) { s.newID = newID }
}

func NewStudyService(sessions SessionRepository, collections CollectionRepository, sink SubmissionSink, opts ...ServiceOption) *StudyService {
	s := &StudyService{
		sessions:    sessions,
		collections: collections,
		sink:        sink,
		policies: map[domain.ItemKind]Policy{
			domain.KindQuestion:  QuizPolicy(),
			domain.KindFlashcard: FlashcardPolicy(),
		},
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type loadResult struct {
	collection domain.Collection
	err        error
}

// Open loads a collection and starts a session over it. If ctx ends before
// the load resolves the result is discarded and ErrLoadAbandoned returned.
func (s *StudyService) Open(ctx context.Context, collectionID string) (*Session, error) {
	done := make(chan loadResult, 1)
	go func() {
		c, err := s.collections.GetCollection(ctx, collectionID)
		done <- loadResult{collection: c, err: err}
	}()

	var res loadResult
	select {
	case <-ctx.Done():
		s.logger.Info("collection load abandoned", "collection", collectionID)
		return nil, fmt.Errorf("%w: %w", domain.ErrLoadAbandoned, ctx.Err())
	case res = <-done:
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLoadAbandoned, ctx.Err())
	}
	if res.err != nil {
		s.logger.Warn("collection load failed", "collection", collectionID, "error", res.err)
		return nil, fmt.Errorf("%w: %w", domain.ErrLoadFailure, res.err)
	}

	kind := resolveKind(res.collection)
	policy, ok := s.policies[kind]
	if !ok {
		policy = PolicyFor(kind)
	}

	session, err := NewSession(s.newID(), res.collection, policy, WithSubmissionSink(s.sink))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLoadFailure, err)
	}
	s.sessions.Put(session)
	s.logger.Info("session opened", "session", session.ID(), "collection", collectionID, "items", session.Len(), "kind", session.Kind())
	return session, nil
}

// Get returns an open session.
func (s *StudyService) Get(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Close discards a session.
func (s *StudyService) Close(sessionID string) {
	s.sessions.Delete(sessionID)
}

// Collection returns collection content without opening a session.
func (s *StudyService) Collection(ctx context.Context, collectionID string) (domain.Collection, error) {
	return s.collections.GetCollection(ctx, collectionID)
}

// Submit runs the completion gate and logs the outcome.
func (s *StudyService) Submit(ctx context.Context, session *Session) (domain.Score, error) {
	score, err := session.TrySubmit(ctx)
	var incomplete *domain.IncompleteSubmissionError
	switch {
	case errors.As(err, &incomplete):
		s.logger.Debug("submission incomplete", "session", session.ID(), "missing", incomplete.Missing)
	case err != nil:
		s.logger.Warn("submission failed", "session", session.ID(), "error", err)
	default:
		s.logger.Info("session finished", "session", session.ID(), "correct", score.Correct, "total", score.Total, "percent", score.Percent)
	}
	return score, err
}
