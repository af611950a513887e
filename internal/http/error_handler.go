package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "task-manager.com/task-manager/internal/errors"
	model "task-manager.com/task-manager/pkg/models"
)

// ErrorHandler renders every error as the response envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	resp := model.Response{Message: apperrors.ErrServer.Message}

	var (
		valErr  *apperrors.ValidationException
		appErr  *apperrors.Exception
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &valErr):
		status = http.StatusUnprocessableEntity
		resp.Message = valErr.Error()
		resp.Errors = valErr.Fields()
	case errors.As(err, &appErr):
		status = appErr.StatusCode
		resp.Message = appErr.Message
	case errors.As(err, &httpErr):
		status = httpErr.Code
		resp.Message = fmt.Sprint(httpErr.Message)
	default:
		log.Printf("unhandled error on %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if status == http.StatusNotFound && resp.Message == "Not Found" {
		resp.Message = "The route " + c.Request().URL.Path + " could not be found."
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, resp)
	}
	if writeErr != nil {
		log.Printf("failed to write error response: %v", writeErr)
	}
}
