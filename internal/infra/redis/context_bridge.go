package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"study-session-service/internal/domain"
)

// ContextBridge keeps a user's assistant context in Redis.
//
//	assistant:{user}:panel          "open"
//	assistant:{user}:conversation   active conversation id (SETNX)
//	assistant:{user}:pending        pending chat input
//	assistant:{user}:materials      SET of material ids
//	assistant:{user}:material:{id}  material JSON
type ContextBridge struct {
	client *redis.Client
	userID string
	ttl    time.Duration
}

func NewContextBridge(client *redis.Client, userID string, ttl time.Duration) *ContextBridge {
	return &ContextBridge{client: client, userID: userID, ttl: ttl}
}

func (b *ContextBridge) SetPendingInput(ctx context.Context, text string) error {
	return b.client.Set(ctx, b.key("pending"), text, b.ttl).Err()
}

func (b *ContextBridge) OpenPanel(ctx context.Context) error {
	return b.client.Set(ctx, b.key("panel"), "open", b.ttl).Err()
}

func (b *ContextBridge) EnsureActiveConversation(ctx context.Context) (bool, error) {
	return b.client.SetNX(ctx, b.key("conversation"), uuid.NewString(), b.ttl).Result()
}

// AddMaterial registers the material id and its JSON in one MULTI block, so
// a failed call leaves neither behind and can be retried.
func (b *ContextBridge) AddMaterial(ctx context.Context, material domain.Material) (bool, error) {
	data, err := json.Marshal(material)
	if err != nil {
		return false, err
	}
	pipe := b.client.TxPipeline()
	added := pipe.SAdd(ctx, b.key("materials"), material.ID)
	pipe.Set(ctx, b.key("material:"+material.ID), data, b.ttl)
	if b.ttl > 0 {
		pipe.Expire(ctx, b.key("materials"), b.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return added.Val() > 0, nil
}

// ActiveConversation returns the current conversation id, if any.
func (b *ContextBridge) ActiveConversation(ctx context.Context) (string, error) {
	id, err := b.client.Get(ctx, b.key("conversation")).Result()
	if err == redis.Nil {
		return "", nil
	}
	return id, err
}

// PendingInput returns the text waiting in the chat input.
func (b *ContextBridge) PendingInput(ctx context.Context) (string, error) {
	text, err := b.client.Get(ctx, b.key("pending")).Result()
	if err == redis.Nil {
		return "", nil
	}
	return text, err
}

// Materials lists the registered context materials.
func (b *ContextBridge) Materials(ctx context.Context) ([]domain.Material, error) {
	ids, err := b.client.SMembers(ctx, b.key("materials")).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Material, 0, len(ids))
	for _, id := range ids {
		data, err := b.client.Get(ctx, b.key("material:"+id)).Bytes()
		if err != nil {
			continue
		}
		var m domain.Material
		if err := json.Unmarshal(data, &m); err == nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (b *ContextBridge) key(suffix string) string {
	return "assistant:" + b.userID + ":" + suffix
}
