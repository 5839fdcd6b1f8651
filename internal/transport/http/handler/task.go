package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"todo-api/internal/app"
	"todo-api/internal/model"
	"todo-api/internal/repository"
	"todo-api/internal/transport/http/middleware"
	"todo-api/internal/transport/http/response"
)

type TaskHandler struct {
	taskService *app.TaskService
}

type TaskCreateRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// TaskUpdateRequest fields left out of the body stay nil and are not
// written.
type TaskUpdateRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewTaskHandler(taskService *app.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, err)
		return
	}

	input := app.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Completed != nil {
		input.Completed = *req.Completed
	}

	task, err := h.taskService.Create(c.Request.Context(), user, input)
	if err != nil {
		h.fail(c, err, "create task failed")
		return
	}
	response.OK(c, task)
}

func (h *TaskHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.List(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err, "list tasks failed")
		return
	}
	response.OK(c, tasks)
}

func (h *TaskHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), user, id)
	if err != nil {
		h.fail(c, err, "get task failed")
		return
	}
	response.OK(c, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	var req TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, err)
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), user, id, repository.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		h.fail(c, err, "update task failed")
		return
	}
	response.OK(c, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), user, id); err != nil {
		h.fail(c, err, "delete task failed")
		return
	}
	response.OK(c, MessageResponse{Message: "Todo deleted successfully"})
}

func (h *TaskHandler) fail(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Invalid(c, err)
	case errors.Is(err, app.ErrTaskNotFound):
		response.Error(c, http.StatusNotFound, "Todo not found")
	default:
		log.Ctx(c.Request.Context()).Error().Err(err).Msg(logMsg)
		response.Internal(c)
	}
}

func currentUser(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "Could not validate credentials")
	}
	return user, ok
}

func taskID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "invalid todo id")
		return 0, false
	}
	return uint(id), true
}
