package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"study-session-service/internal/domain"
)

// CollectionLoader fetches collection content from a backing store.
type CollectionLoader interface {
	LoadCollection(ctx context.Context, collectionID string) (domain.Collection, error)
}

// CollectionRepository caches collections in Redis as JSON and falls back to
// a loader on cache miss.
// Collections are stored as: SET collection:{collectionID} {json} EX ttl
type CollectionRepository struct {
	client *redis.Client
	loader CollectionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCollectionRepository(client *redis.Client, loader CollectionLoader, ttl time.Duration) *CollectionRepository {
	return &CollectionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CollectionRepository) GetCollection(ctx context.Context, collectionID string) (domain.Collection, error) {
	key := r.key(collectionID)
	if c, ok := r.cached(ctx, key); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(collectionID, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if c, ok := r.cached(ctx, key); ok {
			return c, nil
		}

		c, err := r.loader.LoadCollection(ctx, collectionID)
		if err != nil {
			return domain.Collection{}, err
		}

		if data, err := json.Marshal(c); err == nil {
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return c, nil
	})
	if err != nil {
		return domain.Collection{}, err
	}
	return result.(domain.Collection), nil
}

// Invalidate drops a cached collection so the next read reloads it.
func (r *CollectionRepository) Invalidate(ctx context.Context, collectionID string) error {
	return r.client.Del(ctx, r.key(collectionID)).Err()
}

func (r *CollectionRepository) cached(ctx context.Context, key string) (domain.Collection, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil or an unavailable cache both fall through to the loader
		return domain.Collection{}, false
	}
	var c domain.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.Collection{}, false
	}
	return c, true
}

func (r *CollectionRepository) key(collectionID string) string {
	return "collection:" + collectionID
}

func (r *CollectionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
