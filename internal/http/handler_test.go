package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	repository "task-manager.com/task-manager/internal/repositories"
	"task-manager.com/task-manager/internal/ratelimit"
	"task-manager.com/task-manager/internal/services"
	"task-manager.com/task-manager/internal/storage"
	"task-manager.com/task-manager/internal/testutil"
	model "task-manager.com/task-manager/pkg/models"
)

type testEnv struct {
	e     *echo.Echo
	repo  *repository.TaskRepository
	files *storage.LocalStore
}

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

func setupTestEnv(t *testing.T, opts ServerOptions) *testEnv {
	t.Helper()

	repo := repository.NewTaskRepository(testutil.SetupTestDB(t))
	files := testutil.SetupTestStore(t, "http://127.0.0.1:8000")
	if opts.MaxUploadKB == 0 {
		opts.MaxUploadKB = 2048
	}

	return &testEnv{
		e:     NewServer(services.NewTaskService(repo, files), files, opts),
		repo:  repo,
		files: files,
	}
}

func (env *testEnv) doJSON(t *testing.T, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return env.serve(t, req)
}

func (env *testEnv) doForm(t *testing.T, path string, fields map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return env.serve(t, req)
}

func (env *testEnv) doMultipart(t *testing.T, path string, fields map[string]string, filename string, content []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		part.Write(content)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return env.serve(t, req)
}

func (env *testEnv) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	var env2 envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.Unmarshal(rec.Body.Bytes(), &env2); err != nil {
			t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env2
}

func decodeTask(t *testing.T, raw json.RawMessage) model.Task {
	t.Helper()
	var task model.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return task
}

func decodeTasks(t *testing.T, raw json.RawMessage) []model.Task {
	t.Helper()
	var tasks []model.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	return tasks
}

func containsID(tasks []model.Task, id uint) bool {
	for _, task := range tasks {
		if task.ID == id {
			return true
		}
	}
	return false
}

var loginBug = map[string]string{
	"title":    "Fix login bug",
	"priority": "high",
	"type":     "Bug",
	"duedate":  "2025-06-01",
	"staff":    "John",
}

func TestTasks_EndToEnd(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})

	rec, resp := env.doMultipart(t, "/api/tasks/create", loginBug, "", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !resp.Success || resp.Message != "Task created successfully" {
		t.Errorf("unexpected envelope %+v", resp)
	}
	created := decodeTask(t, resp.Data)
	if created.Title != "Fix login bug" || created.ID == 0 {
		t.Fatalf("unexpected created task %+v", created)
	}

	rec, resp = env.doJSON(t, "/api/get-tasks", map[string]string{"id": ""})
	if rec.Code != http.StatusOK || resp.Message != "All tasks fetched successfully" {
		t.Fatalf("list status=%d body=%s", rec.Code, rec.Body.String())
	}
	if !containsID(decodeTasks(t, resp.Data), created.ID) {
		t.Errorf("expected list to include %d", created.ID)
	}

	rec, _ = env.doForm(t, "/api/tasks/delete", map[string]string{"id": strconv.Itoa(int(created.ID))})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", rec.Code, rec.Body.String())
	}

	_, resp = env.doJSON(t, "/api/get-tasks", nil)
	if containsID(decodeTasks(t, resp.Data), created.ID) {
		t.Errorf("expected list to exclude deleted %d", created.ID)
	}
}

func TestGetTasks_ByID(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})

	_, resp := env.doForm(t, "/api/tasks/create", loginBug)
	created := decodeTask(t, resp.Data)

	rec, resp := env.doJSON(t, "/api/get-tasks", map[string]any{"id": created.ID})
	if rec.Code != http.StatusOK || resp.Message != "Task fetched successfully" {
		t.Fatalf("get status=%d body=%s", rec.Code, rec.Body.String())
	}

	got := decodeTask(t, resp.Data)
	if got.ID != created.ID || got.Title != created.Title || got.Priority != created.Priority ||
		got.Type != created.Type || got.DueDate != created.DueDate || got.Staff != created.Staff {
		t.Errorf("fetched %+v does not match created %+v", got, created)
	}
}

func TestGetTasks_UnknownID(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})

	for _, id := range []any{"999", 999, "abc", "-1"} {
		rec, resp := env.doJSON(t, "/api/get-tasks", map[string]any{"id": id})
		if rec.Code != http.StatusNotFound {
			t.Errorf("id %v: expected 404, got %d", id, rec.Code)
		}
		if resp.Success || resp.Message != "Task not found" {
			t.Errorf("id %v: unexpected envelope %+v", id, resp)
		}
	}
}

func TestGetTasks_EmptyStoreReturnsEmptyList(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/get-tasks", nil)
	rec, resp := env.serve(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if string(resp.Data) != "[]" {
		t.Errorf("expected empty array, got %s", resp.Data)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})

	rec, resp := env.doJSON(t, "/api/tasks/create", map[string]string{
		"priority": "urgent",
		"duedate":  "not a date",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if resp.Success {
		t.Error("expected success=false")
	}
	for _, field := range []string{"title", "priority", "type", "duedate"} {
		if len(resp.Errors[field]) == 0 {
			t.Errorf("expected error for %s, got %v", field, resp.Errors)
		}
	}
	if resp.Message != "The title field is required. (and 3 more errors)" {
		t.Errorf("unexpected message %q", resp.Message)
	}

	if n, _ := env.repo.Count(context.Background()); n != 0 {
		t.Errorf("expected nothing stored, got %d", n)
	}
}

func TestCreateTask_WithImage(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})

	rec, resp := env.doMultipart(t, "/api/tasks/create", loginBug, "shot.png", testutil.PNG)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	task := decodeTask(t, resp.Data)
	if task.File == nil || !strings.HasPrefix(*task.File, "http://127.0.0.1:8000/storage/uploads/tasks/") {
		t.Fatalf("unexpected file url %v", task.File)
	}

	u, _ := url.Parse(*task.File)
	req := httptest.NewRequest(http.MethodGet, u.Path, nil)
	fileRec := httptest.NewRecorder()
	env.e.ServeHTTP(fileRec, req)
	if fileRec.Code != http.StatusOK || !bytes.Equal(fileRec.Body.Bytes(), testutil.PNG) {
		t.Errorf("expected attachment to be served, status=%d", fileRec.Code)
	}

	rec, _ = env.doJSON(t, "/api/tasks/delete", map[string]any{"id": task.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rec.Code)
	}

	fileRec = httptest.NewRecorder()
	env.e.ServeHTTP(fileRec, httptest.NewRequest(http.MethodGet, u.Path, nil))
	if fileRec.Code != http.StatusNotFound {
		t.Errorf("expected attachment to be gone, status=%d", fileRec.Code)
	}
}

func TestCreateTask_RejectsNonImage(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})

	rec, resp := env.doMultipart(t, "/api/tasks/create", loginBug, "notes.txt", []byte("just text"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if resp.Errors["file"][0] != "The file field must be an image." {
		t.Errorf("unexpected errors %v", resp.Errors)
	}
}

func TestCreateTask_RejectsOversizedImage(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{MaxUploadKB: 1})

	big := append(append([]byte{}, testutil.PNG...), make([]byte, 2048)...)
	rec, resp := env.doMultipart(t, "/api/tasks/create", loginBug, "big.png", big)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%s)", rec.Code, rec.Body.String())
	}
	if resp.Errors["file"][0] != "The file field must not be greater than 1 kilobytes." {
		t.Errorf("unexpected errors %v", resp.Errors)
	}
}

func TestUpdateTask_Partial(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})

	_, resp := env.doForm(t, "/api/tasks/create", loginBug)
	created := decodeTask(t, resp.Data)
	id := strconv.Itoa(int(created.ID))

	var first, second model.Task
	for i, dst := range []*model.Task{&first, &second} {
		rec, resp := env.doForm(t, "/api/tasks/update", map[string]string{"id": id, "title": "X"})
		if rec.Code != http.StatusOK || resp.Message != "Task updated successfully" {
			t.Fatalf("update %d status=%d body=%s", i+1, rec.Code, rec.Body.String())
		}
		*dst = decodeTask(t, resp.Data)
	}

	for _, got := range []model.Task{first, second} {
		if got.Title != "X" {
			t.Errorf("expected title X, got %s", got.Title)
		}
		if got.Priority != created.Priority || got.Type != created.Type || got.DueDate != created.DueDate ||
			got.Staff != created.Staff || got.Description != created.Description || got.Entity != created.Entity {
			t.Errorf("expected other fields unchanged, got %+v", got)
		}
	}
}

func TestUpdateTask_Errors(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})

	_, resp := env.doForm(t, "/api/tasks/create", loginBug)
	created := decodeTask(t, resp.Data)
	id := strconv.Itoa(int(created.ID))

	rec, resp := env.doForm(t, "/api/tasks/update", map[string]string{"id": id, "priority": "critical"})
	if rec.Code != http.StatusUnprocessableEntity || len(resp.Errors["priority"]) != 1 {
		t.Errorf("expected priority rejection, status=%d errors=%v", rec.Code, resp.Errors)
	}

	rec, resp = env.doForm(t, "/api/tasks/update", map[string]string{"title": "no id"})
	if rec.Code != http.StatusUnprocessableEntity || len(resp.Errors["id"]) != 1 {
		t.Errorf("expected id required, status=%d errors=%v", rec.Code, resp.Errors)
	}

	rec, resp = env.doForm(t, "/api/tasks/update", map[string]string{"id": "999", "title": "ghost"})
	if rec.Code != http.StatusNotFound || resp.Message != "Task not found" {
		t.Errorf("expected 404, status=%d body=%s", rec.Code, rec.Body.String())
	}

	_, resp = env.doJSON(t, "/api/get-tasks", map[string]string{"id": id})
	if got := decodeTask(t, resp.Data); got.Priority != created.Priority || got.Title != created.Title {
		t.Errorf("expected rejected updates to leave the task unchanged, got %+v", got)
	}
}

func TestDeleteTask_Missing(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})
	env.doForm(t, "/api/tasks/create", loginBug)

	rec, resp := env.doForm(t, "/api/tasks/delete", map[string]string{"id": "999"})
	if rec.Code != http.StatusNotFound || resp.Success {
		t.Errorf("expected 404, got %d %+v", rec.Code, resp)
	}

	rec, resp = env.doForm(t, "/api/tasks/delete", map[string]string{})
	if rec.Code != http.StatusUnprocessableEntity || len(resp.Errors["id"]) != 1 {
		t.Errorf("expected id required, got %d %+v", rec.Code, resp)
	}

	_, resp = env.doJSON(t, "/api/get-tasks", nil)
	if n := len(decodeTasks(t, resp.Data)); n != 1 {
		t.Errorf("expected list count unchanged at 1, got %d", n)
	}
}

func TestRoutes_UnknownRouteUsesEnvelope(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})

	rec, resp := env.doJSON(t, "/api/nope", nil)
	if rec.Code != http.StatusNotFound || resp.Success || resp.Message == "" {
		t.Errorf("expected enveloped 404, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRoutes_RateLimited(t *testing.T) {
	limiter, _ := ratelimit.NewMemoryLimiter(1, time.Minute)
	env := setupTestEnv(t, ServerOptions{Limiter: limiter})

	if rec, _ := env.doJSON(t, "/api/get-tasks", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}
	rec, resp := env.doJSON(t, "/api/get-tasks", nil)
	if rec.Code != http.StatusTooManyRequests || resp.Message != "Too Many Attempts." {
		t.Errorf("expected 429 envelope, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateTask_ReplacesAttachment(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})

	_, resp := env.doMultipart(t, "/api/tasks/create", loginBug, "first.png", testutil.PNG)
	created := decodeTask(t, resp.Data)
	oldPath, ok := env.files.PathFromURL(*created.File)
	if !ok {
		t.Fatalf("unexpected file url %s", *created.File)
	}

	fields := map[string]string{"id": strconv.Itoa(int(created.ID))}
	rec, resp := env.doMultipart(t, "/api/tasks/update", fields, "second.png", testutil.PNG)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rec.Code, rec.Body.String())
	}
	updated := decodeTask(t, resp.Data)
	if updated.File == nil || *updated.File == *created.File {
		t.Fatalf("expected a new file url, got %v", updated.File)
	}

	ctx := context.Background()
	if env.files.Exists(ctx, oldPath) {
		t.Error("expected superseded attachment to be removed")
	}
	newPath, _ := env.files.PathFromURL(*updated.File)
	if !env.files.Exists(ctx, newPath) {
		t.Error("expected new attachment to exist")
	}
}

func TestCreateTask_RejectsNonStringJSON(t *testing.T) {
	env := setupTestEnv(t, ServerOptions{})

	rec, resp := env.doJSON(t, "/api/tasks/create", map[string]any{
		"title":    map[string]int{"a": 1},
		"priority": "high",
		"type":     []string{"Bug"},
		"duedate":  "2025-06-01",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (%s)", rec.Code, rec.Body.String())
	}
	if resp.Errors["title"][0] != "The title field must be a string." || resp.Errors["type"][0] != "The type field must be a string." {
		t.Errorf("unexpected errors %v", resp.Errors)
	}
	if n, _ := env.repo.Count(context.Background()); n != 0 {
		t.Errorf("expected nothing stored, got %d", n)
	}

	_, resp = env.doJSON(t, "/api/tasks/create", loginBug)
	created := decodeTask(t, resp.Data)

	rec, resp = env.doJSON(t, "/api/tasks/update", map[string]any{"id": created.ID, "staff": 7})
	if rec.Code != http.StatusUnprocessableEntity || len(resp.Errors["staff"]) != 1 {
		t.Errorf("expected staff rejection with numeric id accepted, got %d %v", rec.Code, resp.Errors)
	}
}
