package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"todo-api/internal/model"
)

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	db, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))
	assert.True(t, db.Migrator().HasTable(&model.User{}))
	assert.True(t, db.Migrator().HasTable(&model.Task{}))
	assert.True(t, db.Migrator().HasIndex(&model.User{}, "Username"))
	assert.True(t, db.Migrator().HasIndex(&model.User{}, "Email"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "whatever")
	assert.Error(t, err)
}

func TestOpen_TranslatesDuplicateKey(t *testing.T) {
	db, err := Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, Migrate(db))

	first := &model.User{Username: "alice", Email: "a@x.com", PasswordHash: "h"}
	require.NoError(t, db.Create(first).Error)

	second := &model.User{Username: "alice", Email: "b@x.com", PasswordHash: "h"}
	err = db.Create(second).Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}
