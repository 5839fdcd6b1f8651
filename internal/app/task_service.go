package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"todo-api/internal/model"
	"todo-api/internal/repository"
)

var ErrTaskNotFound = errors.New("todo not found")

const maxTitleLength = 255

type TaskService struct {
	repo      *repository.TaskRepository
	publisher TaskEventPublisher
	now       func() time.Time
}

type CreateTaskInput struct {
	Title       string
	Description *string
	Completed   bool
}

// NewTaskService wires task CRUD. publisher may be nil.
func NewTaskService(repo *repository.TaskRepository, publisher TaskEventPublisher) *TaskService {
	return &TaskService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *TaskService) Create(ctx context.Context, actor *model.User, input CreateTaskInput) (*model.Task, error) {
	if !validTitle(input.Title) {
		return nil, ErrInvalidInput
	}
	log.Ctx(ctx).Info().Str("username", actor.Username).Msg("creating task")

	task := &model.Task{
		Title:       input.Title,
		Description: input.Description,
		Completed:   input.Completed,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.publish(ctx, TaskCreated, actor, task)
	return task, nil
}

func (s *TaskService) List(ctx context.Context, actor *model.User) ([]model.Task, error) {
	log.Ctx(ctx).Info().Str("username", actor.Username).Msg("listing tasks")
	return s.repo.List(ctx)
}

func (s *TaskService) Get(ctx context.Context, actor *model.User, id uint) (*model.Task, error) {
	log.Ctx(ctx).Info().Str("username", actor.Username).Uint("task_id", id).Msg("reading task")

	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// Update applies only the fields set in patch.
func (s *TaskService) Update(ctx context.Context, actor *model.User, id uint, patch repository.TaskPatch) (*model.Task, error) {
	if patch.Title != nil && !validTitle(*patch.Title) {
		return nil, ErrInvalidInput
	}
	log.Ctx(ctx).Info().Str("username", actor.Username).Uint("task_id", id).Msg("updating task")

	task, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	s.publish(ctx, TaskUpdated, actor, task)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, actor *model.User, id uint) error {
	log.Ctx(ctx).Info().Str("username", actor.Username).Uint("task_id", id).Msg("deleting task")

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTaskNotFound
	}

	s.publish(ctx, TaskDeleted, actor, &model.Task{ID: id})
	return nil
}

// publish is best-effort: the mutation is already committed.
func (s *TaskService) publish(ctx context.Context, eventType TaskEventType, actor *model.User, task *model.Task) {
	if s.publisher == nil {
		return
	}
	event := TaskEvent{
		Type:       eventType,
		TaskID:     task.ID,
		Title:      task.Title,
		Completed:  task.Completed,
		Actor:      actor.Username,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("event", string(eventType)).Uint("task_id", task.ID).Msg("publish task event failed")
	}
}

func validTitle(title string) bool {
	return strings.TrimSpace(title) != "" && len([]rune(title)) <= maxTitleLength
}
