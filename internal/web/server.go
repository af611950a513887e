// Package web serves the task list and task form pages on top of the API
// client.
package web

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"task-manager.com/task-manager/pkg/client"
	model "task-manager.com/task-manager/pkg/models"
)

// Tasks is the part of *client.Client the pages use.
type Tasks interface {
	FetchAll(ctx context.Context) ([]model.Task, error)
	FetchByID(ctx context.Context, id uint) (*model.Task, error)
	DeleteByID(ctx context.Context, id uint) error
	CreateOrUpdate(ctx context.Context, fields client.TaskFields, id uint) (*model.Task, error)
}

type Server struct {
	tasks Tasks
}

// NewServer builds the UI server.
func NewServer(tasks Tasks) (*echo.Echo, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{tasks: tasks}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer

	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("web %s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.GET("/", s.listPage)
	e.GET("/record-list", s.listPage)
	e.GET("/register", s.formPage)
	e.POST("/register", s.submitForm)
	e.GET("/delete", s.confirmDelete)
	e.POST("/delete", s.deleteTask)

	return e, nil
}
