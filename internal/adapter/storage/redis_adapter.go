package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kwalram/textile-pos/internal/core/domain"
)

const (
	cartKeyPrefix = "cart:"
	cartTTL       = 24 * time.Hour
)

// RedisCartStore keeps one cart document per session key so a browsing
// session survives a server restart. Keys expire after cartTTL.
type RedisCartStore struct {
	client *redis.Client
}

func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{client: client}
}

type cartDocument struct {
	Items []domain.LineItem `json:"items"`
}

func (r *RedisCartStore) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var doc cartDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return domain.RestoreCart(doc.Items), nil
}

func (r *RedisCartStore) Save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	data, err := json.Marshal(cartDocument{Items: cart.Items()})
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	return r.client.Set(ctx, cartKeyPrefix+sessionID, data, cartTTL).Err()
}

func (r *RedisCartStore) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, cartKeyPrefix+sessionID).Err()
}
