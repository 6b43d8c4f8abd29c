package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"study-session-service/internal/domain"
	"study-session-service/internal/infra/memory"
)

func TestCollectionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		CollectionLoader: memory.NewStaticCollectionLoader(map[string]domain.Collection{
			"quiz-1": sampleCollection(),
		}),
	}
	repo := NewCollectionRepository(client, loader, time.Minute)

	first, err := repo.GetCollection(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get collection: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("collection:quiz-1") {
		t.Fatalf("expected collection cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	second, err := repo.GetCollection(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get collection 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(second.Items) != len(first.Items) || second.Items[0].AnswerKey != "4" {
		t.Fatalf("cached collection differs: %+v", second)
	}

	if err := repo.Invalidate(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetCollection(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestCollectionRepositoryFallsBackWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	repo := NewCollectionRepository(client, memory.NewStaticCollectionLoader(map[string]domain.Collection{
		"quiz-1": sampleCollection(),
	}), time.Minute)

	if _, err := repo.GetCollection(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("expected loader fallback, got %v", err)
	}
}

type countingLoader struct {
	memory.CollectionLoader
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

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
