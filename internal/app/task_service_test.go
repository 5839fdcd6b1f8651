package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-api/internal/model"
	"todo-api/internal/repository"
)

var testActor = &model.User{ID: 1, Username: "alice"}

func newTestTaskService(t *testing.T, publisher TaskEventPublisher) *TaskService {
	t.Helper()
	return NewTaskService(repository.NewTaskRepository(setupTestDB(t)), publisher)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()
	publisher := &fakePublisher{}
	s := newTestTaskService(t, publisher)

	task, err := s.Create(ctx, testActor, CreateTaskInput{Title: "buy milk"})
	require.NoError(t, err)
	assert.NotZero(t, task.ID)
	assert.False(t, task.Completed)
	assert.Nil(t, task.Description)

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, TaskCreated, events[0].Type)
	assert.Equal(t, task.ID, events[0].TaskID)
	assert.Equal(t, "alice", events[0].Actor)
}

func TestTaskService_Create_InvalidTitle(t *testing.T) {
	s := newTestTaskService(t, nil)

	for _, title := range []string{"", "   ", strings.Repeat("x", 256)} {
		_, err := s.Create(context.Background(), testActor, CreateTaskInput{Title: title})
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestTaskService_GetAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestTaskService(t, nil)

	created, err := s.Create(ctx, testActor, CreateTaskInput{Title: "buy milk", Description: strPtr("2l"), Completed: true})
	require.NoError(t, err)

	got, err := s.Get(ctx, testActor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "2l", *got.Description)
	assert.True(t, got.Completed)

	_, err = s.Get(ctx, testActor, created.ID+1)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	tasks, err := s.List(ctx, testActor)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestTaskService_Update_Partial(t *testing.T) {
	ctx := context.Background()
	publisher := &fakePublisher{}
	s := newTestTaskService(t, publisher)

	created, err := s.Create(ctx, testActor, CreateTaskInput{Title: "buy milk", Description: strPtr("2l")})
	require.NoError(t, err)

	updated, err := s.Update(ctx, testActor, created.ID, repository.TaskPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "buy milk", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "2l", *updated.Description)

	_, err = s.Update(ctx, testActor, created.ID, repository.TaskPatch{Title: strPtr(" ")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Update(ctx, testActor, created.ID+1, repository.TaskPatch{Completed: boolPtr(true)})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	events := publisher.published()
	require.Len(t, events, 2)
	assert.Equal(t, TaskUpdated, events[1].Type)
	assert.True(t, events[1].Completed)
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	publisher := &fakePublisher{}
	s := newTestTaskService(t, publisher)

	created, err := s.Create(ctx, testActor, CreateTaskInput{Title: "buy milk"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, testActor, created.ID))
	assert.ErrorIs(t, s.Delete(ctx, testActor, created.ID), ErrTaskNotFound)

	events := publisher.published()
	require.Len(t, events, 2)
	assert.Equal(t, TaskDeleted, events[1].Type)
	assert.Equal(t, created.ID, events[1].TaskID)
}

func TestTaskService_PublishFailureIsNotFatal(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker down")}
	s := newTestTaskService(t, publisher)

	task, err := s.Create(context.Background(), testActor, CreateTaskInput{Title: "buy milk"})
	require.NoError(t, err)
	assert.NotZero(t, task.ID)
}
