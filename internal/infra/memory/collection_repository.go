package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"study-session-service/internal/domain"
)

// CollectionLoader fetches collection content from a backing store.
type CollectionLoader interface {
	LoadCollection(ctx context.Context, collectionID string) (domain.Collection, error)
}

// CollectionRepository caches collections with TTL to avoid repeated loads.
type CollectionRepository struct {
	loader CollectionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedCollection
}

type cachedCollection struct {
	collection domain.Collection
	expiresAt  time.Time
}

func NewCollectionRepository(loader CollectionLoader, ttl time.Duration) *CollectionRepository {
	return &CollectionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCollection),
	}
}

func (r *CollectionRepository) GetCollection(ctx context.Context, collectionID string) (domain.Collection, error) {
	if c, ok := r.lookup(collectionID); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(collectionID, func() (interface{}, error) {
		if c, ok := r.lookup(collectionID); ok {
			return c, nil
		}

		c, err := r.loader.LoadCollection(ctx, collectionID)
		if err != nil {
			return domain.Collection{}, err
		}

		r.mu.Lock()
		r.cache[collectionID] = cachedCollection{
			collection: c,
			expiresAt:  r.clock().Add(r.ttlWithJitterLocked()),
		}
		r.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return domain.Collection{}, err
	}
	return result.(domain.Collection), nil
}

func (r *CollectionRepository) lookup(collectionID string) (domain.Collection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[collectionID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Collection{}, false
	}
	return entry.collection, true
}

// ttlWithJitterLocked adds up to 10% jitter to spread expirations.
func (r *CollectionRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticCollectionLoader is backed by an in-memory map (tests, demos, or a
// YAML seed file).
type StaticCollectionLoader struct {
	collections map[string]domain.Collection
}

func NewStaticCollectionLoader(collections map[string]domain.Collection) *StaticCollectionLoader {
	return &StaticCollectionLoader{collections: collections}
}

func (l *StaticCollectionLoader) LoadCollection(_ context.Context, collectionID string) (domain.Collection, error) {
	if c, ok := l.collections[collectionID]; ok {
		return c, nil
	}
	return domain.Collection{}, domain.ErrCollectionNotFound
}
