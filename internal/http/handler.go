package http

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "task-manager.com/task-manager/internal/errors"
	"task-manager.com/task-manager/internal/http/validators"
	repository "task-manager.com/task-manager/internal/repositories"
	"task-manager.com/task-manager/internal/services"
	model "task-manager.com/task-manager/pkg/models"
)

type Handler struct {
	taskService *services.TaskService
	validator   *validators.TaskValidator
}

func NewHandler(taskService *services.TaskService, validator *validators.TaskValidator) *Handler {
	return &Handler{
		taskService: taskService,
		validator:   validator,
	}
}

// GetTasks returns one task when a non-empty id is posted, otherwise all.
func (h *Handler) GetTasks(c echo.Context) error {
	fields, _, err := readFields(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()

	if raw := strings.TrimSpace(fields["id"]); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			return apperrors.ErrTaskNotFound
		}

		task, err := h.taskService.GetTask(ctx, id)
		if err != nil {
			return h.serviceError("get task", err)
		}

		return c.JSON(http.StatusOK, model.Response{
			Success: true,
			Message: "Task fetched successfully",
			Data:    task,
		})
	}

	tasks, err := h.taskService.ListTasks(ctx)
	if err != nil {
		return h.serviceError("list tasks", err)
	}

	return c.JSON(http.StatusOK, model.Response{
		Success: true,
		Message: "All tasks fetched successfully",
		Data:    tasks,
	})
}

func (h *Handler) CreateTask(c echo.Context) error {
	req, err := readTaskRequest(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.ValidateCreateTaskRequest(&req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		return h.serviceError("create task", err)
	}

	return c.JSON(http.StatusCreated, model.Response{
		Success: true,
		Message: "Task created successfully",
		Data:    task,
	})
}

func (h *Handler) UpdateTask(c echo.Context) error {
	req, err := readTaskRequest(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.ValidateUpdateTaskRequest(&req); err != nil {
		return err
	}

	id, ok := parseID(*req.ID)
	if !ok {
		return apperrors.ErrTaskNotFound
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), id, req)
	if err != nil {
		return h.serviceError("update task", err)
	}

	return c.JSON(http.StatusOK, model.Response{
		Success: true,
		Message: "Task updated successfully",
		Data:    task,
	})
}

func (h *Handler) DeleteTask(c echo.Context) error {
	fields, _, err := readFields(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	raw := strings.TrimSpace(fields["id"])
	if raw == "" {
		return apperrors.ErrTaskIDRequired()
	}
	id, ok := parseID(raw)
	if !ok {
		return apperrors.ErrTaskNotFound
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), id); err != nil {
		return h.serviceError("delete task", err)
	}

	return c.JSON(http.StatusOK, model.Response{
		Success: true,
		Message: "Task deleted successfully",
	})
}

func (h *Handler) serviceError(op string, err error) error {
	if errors.Is(err, repository.ErrTaskNotFound) {
		return apperrors.ErrTaskNotFound
	}
	log.Printf("%s: %v", op, err)
	return apperrors.ErrServer
}
