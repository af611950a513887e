package http

import (
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"task-manager.com/task-manager/internal/http/validators"
	"task-manager.com/task-manager/internal/ratelimit"
	"task-manager.com/task-manager/internal/services"
	"task-manager.com/task-manager/internal/storage"
)

type ServerOptions struct {
	Limiter          ratelimit.Limiter
	MaxUploadKB      int64
	CORSAllowOrigins []string
}

// NewServer assembles the API: middleware, error envelope, routes and the
// public attachment directory.
func NewServer(taskService *services.TaskService, files *storage.LocalStore, opts ServerOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Printf("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	if len(opts.CORSAllowOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: opts.CORSAllowOrigins}))
	}
	// leave room for the multipart envelope around the largest upload
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dK", opts.MaxUploadKB+512)))

	handler := NewHandler(taskService, validators.NewTaskValidator(opts.MaxUploadKB))
	Register(e, handler, opts.Limiter, files.Root())

	return e
}
