package web

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"task-manager.com/task-manager/pkg/client"
)

const (
	listPath        = "/record-list"
	notFoundMessage = "Task not found"
)

func (s *Server) listPage(c echo.Context) error {
	state := s.loadList(c)
	return c.Render(http.StatusOK, "list.html", state)
}

// confirmDelete renders the list with the delete modal open.
func (s *Server) confirmDelete(c echo.Context) error {
	state := s.loadList(c)

	id, ok := parseID(c.QueryParam("id"))
	if state.Status == ListSuccess && (!ok || !state.ConfirmDelete(id)) {
		state.Toast = errorToast(notFoundMessage)
	}
	return c.Render(http.StatusOK, "list.html", state)
}

func (s *Server) deleteTask(c echo.Context) error {
	id, ok := parseID(c.FormValue("id"))
	if !ok {
		return redirectWithToast(c, "error", notFoundMessage)
	}

	if err := s.tasks.DeleteByID(c.Request().Context(), id); err != nil {
		log.Printf("delete task %d: %v", id, err)
		return redirectWithToast(c, "error", errorMessage(err))
	}
	return redirectWithToast(c, "success", DeletedMessage)
}

func (s *Server) formPage(c echo.Context) error {
	id, editing, ok := formTarget(c)
	if !ok {
		state := NewFormState(0)
		state.Toast = errorToast(notFoundMessage)
		return c.Render(http.StatusNotFound, "form.html", state)
	}
	if !editing {
		return c.Render(http.StatusOK, "form.html", NewFormState(0))
	}

	state := NewFormState(id)
	task, err := s.tasks.FetchByID(c.Request().Context(), id)
	if err != nil {
		log.Printf("fetch task %d: %v", id, err)
		state.Fail(err)
		return c.Render(statusFor(err), "form.html", state)
	}
	state.Prefill(task)
	return c.Render(http.StatusOK, "form.html", state)
}

func (s *Server) submitForm(c echo.Context) error {
	id, editing, ok := formTarget(c)
	if !ok {
		return redirectWithToast(c, "error", notFoundMessage)
	}

	ctx := c.Request().Context()
	state := NewFormState(id)
	if editing {
		if task, err := s.tasks.FetchByID(ctx, id); err == nil {
			state.Prefill(task)
		}
	}
	state.Submitted(FormValues{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Priority:    c.FormValue("priority"),
		Type:        c.FormValue("type"),
		DueDate:     c.FormValue("duedate"),
		Entity:      c.FormValue("entity"),
		Staff:       c.FormValue("staff"),
	})

	fields := state.Fields()
	if fh, err := c.FormFile("file"); err == nil && fh.Filename != "" {
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		fields.File = &client.File{Name: fh.Filename, Content: f}
	}

	task, err := s.tasks.CreateOrUpdate(ctx, fields, id)
	if err != nil {
		log.Printf("save task: %v", err)
		state.Fail(err)
		return c.Render(statusFor(err), "form.html", state)
	}

	return redirectWithToast(c, "success", SavedMessage(task.Title))
}

// formTarget reads the edit query. A form without type=edit creates; an
// edit without a usable id is not ok.
func formTarget(c echo.Context) (id uint, editing bool, ok bool) {
	if c.QueryParam("type") != "edit" {
		return 0, false, true
	}
	id, ok = parseID(c.QueryParam("id"))
	return id, ok, ok
}

func (s *Server) loadList(c echo.Context) *ListState {
	state := NewListState()
	tasks, err := s.tasks.FetchAll(c.Request().Context())
	if err != nil {
		log.Printf("fetch tasks: %v", err)
	}
	state.Resolve(tasks, err)

	if msg := c.QueryParam("success"); msg != "" {
		state.Toast = successToast(msg)
	} else if msg := c.QueryParam("error"); msg != "" {
		state.Toast = errorToast(msg)
	}
	return state
}

func redirectWithToast(c echo.Context, kind, msg string) error {
	q := url.Values{}
	q.Set(kind, msg)
	return c.Redirect(http.StatusSeeOther, listPath+"?"+q.Encode())
}

func errorMessage(err error) string {
	var cerr *client.Error
	if errors.As(err, &cerr) && cerr.Message != "" {
		return cerr.Message
	}
	return ErrorBanner
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, client.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, client.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
