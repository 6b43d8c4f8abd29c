package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"study-session-service/internal/domain"
)

func TestCollectionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		CollectionLoader: NewStaticCollectionLoader(map[string]domain.Collection{
			"quiz-1": sampleCollection(),
		}),
	}
	repo := NewCollectionRepository(loader, time.Minute)

	if _, err := repo.GetCollection(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get collection: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetCollection(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get collection 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestCollectionRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		CollectionLoader: NewStaticCollectionLoader(map[string]domain.Collection{
			"quiz-1": sampleCollection(),
		}),
	}
	repo := NewCollectionRepository(loader, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetCollection(context.Background(), "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetCollection(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestCollectionRepositoryNotFound(t *testing.T) {
	repo := NewCollectionRepository(NewStaticCollectionLoader(nil), time.Minute)
	_, err := repo.GetCollection(context.Background(), "nope")
	if !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	CollectionLoader
	calls int
}

func (l *countingLoader) LoadCollection(ctx context.Context, collectionID string) (domain.Collection, error) {
	l.calls++
	return l.CollectionLoader.LoadCollection(ctx, collectionID)
}

func sampleCollection() domain.Collection {
	return domain.Collection{
		ID:   "quiz-1",
		Name: "Arithmetic",
		Kind: domain.KindQuestion,
		Items: []domain.Item{
			domain.NewQuestion("q1", "What is 2 + 2?", "4", "3", "4"),
		},
	}
}
