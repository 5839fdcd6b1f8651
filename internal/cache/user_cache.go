package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"todo-api/internal/model"
)

// cachedUser is the Redis payload. The password hash never leaves the store.
type cachedUser struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserCache keeps resolved identities keyed by username. Users are never
// updated or deleted, so entries only expire.
type UserCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewUserCache(client *redisv9.Client, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &UserCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *UserCache) GetUser(ctx context.Context, username string) (*model.User, bool, error) {
	raw, err := c.client.Get(ctx, c.userKey(username)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get user failed: %w", err)
	}

	var cached cachedUser
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached user failed: %w", err)
	}
	return &model.User{
		ID:        cached.ID,
		Username:  cached.Username,
		Email:     cached.Email,
		CreatedAt: cached.CreatedAt,
	}, true, nil
}

func (c *UserCache) SetUser(ctx context.Context, user *model.User) error {
	payload, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal user cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.userKey(user.Username), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set user failed: %w", err)
	}
	return nil
}

func (c *UserCache) userKey(username string) string {
	return fmt.Sprintf("todo:user:%s", username)
}
