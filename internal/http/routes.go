package http

import (
	"github.com/labstack/echo/v4"

	middleware "task-manager.com/task-manager/internal/http/middlewares"
	"task-manager.com/task-manager/internal/ratelimit"
	"task-manager.com/task-manager/internal/storage"
)

func Register(e *echo.Echo, h *Handler, limiter ratelimit.Limiter, storageDir string) {
	api := e.Group("/api")
	if limiter != nil {
		api.Use(middleware.RateLimiter(limiter))
	}

	api.POST("/get-tasks", h.GetTasks)
	api.POST("/tasks/create", h.CreateTask)
	api.POST("/tasks/update", h.UpdateTask)
	api.POST("/tasks/delete", h.DeleteTask)

	e.Static(storage.PublicPrefix, storageDir)
}
