package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"todo-api/internal/model"
	"todo-api/internal/platform/database"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

type fakeUserCache struct {
	mu      sync.Mutex
	users   map[string]*model.User
	gets    int
	sets    int
	failGet bool
}

func newFakeUserCache() *fakeUserCache {
	return &fakeUserCache{users: make(map[string]*model.User)}
}

func (c *fakeUserCache) GetUser(_ context.Context, username string) (*model.User, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return nil, false, errors.New("cache down")
	}
	user, ok := c.users[username]
	return user, ok, nil
}

func (c *fakeUserCache) SetUser(_ context.Context, user *model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	copied := *user
	c.users[user.Username] = &copied
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []TaskEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event TaskEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []TaskEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]TaskEvent(nil), p.events...)
}
