package redis

import (
	"context"
	"strconv"
	"time"
)

// BindingCache memoizes the chat_id -> user_id resolution used on every
// inbound Telegram update for an already-paired chat. Invalidated on rebind.
type BindingCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewBindingCache(client RedisClient, ttl time.Duration) *BindingCache {
	return &BindingCache{
		client: client,
		ttl:    ttl,
	}
}

func key(chatID int64) string {
	return "binding:chat:" + strconv.FormatInt(chatID, 10)
}

func (c *BindingCache) StoreBinding(ctx context.Context, chatID int64, userID string) error {
	return c.client.Set(ctx, key(chatID), userID, c.ttl)
}

// GetBinding returns ("", nil) on a cache miss.
func (c *BindingCache) GetBinding(ctx context.Context, chatID int64) (string, error) {
	userID, err := c.client.Get(ctx, key(chatID))
	if err == Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (c *BindingCache) DeleteBinding(ctx context.Context, chatID int64) error {
	return c.client.Del(ctx, key(chatID))
}
