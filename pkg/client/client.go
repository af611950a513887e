// Package client talks to the task API and caches read results.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	model "task-manager.com/task-manager/pkg/models"
)

const (
	ListKey    = "get-record-list"
	ByIDPrefix = "get-record-by-id:"

	DefaultTimeout = 10 * time.Second
)

func ByIDKey(id uint) string {
	return ByIDPrefix + strconv.FormatUint(uint64(id), 10)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *QueryCache
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying client, including its timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New returns a client for the API at baseURL. A nil cache gets a private one.
func New(baseURL string, cache *QueryCache, opts ...Option) *Client {
	if cache == nil {
		cache = NewQueryCache()
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		cache:      cache,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Cache() *QueryCache {
	return c.cache
}

// TaskFields carries the values sent on create or update. Nil fields are
// not sent, so an update only touches what is set.
type TaskFields struct {
	Title       *string
	Description *string
	Priority    *string
	Type        *string
	DueDate     *string
	Entity      *string
	Staff       *string
	File        *File
}

type File struct {
	Name    string
	Content io.Reader
}

func String(s string) *string {
	return &s
}

type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
}

func (c *Client) FetchAll(ctx context.Context) ([]model.Task, error) {
	v, err := c.cache.Load(ctx, ListKey, func(ctx context.Context) (any, error) {
		var tasks []model.Task
		if err := c.postJSON(ctx, "/api/get-tasks", map[string]string{"id": ""}, &tasks); err != nil {
			return nil, err
		}
		if tasks == nil {
			tasks = []model.Task{}
		}
		return tasks, nil
	})
	if err != nil {
		return nil, asError(err)
	}

	cached := v.([]model.Task)
	tasks := make([]model.Task, len(cached))
	copy(tasks, cached)
	return tasks, nil
}

func (c *Client) FetchByID(ctx context.Context, id uint) (*model.Task, error) {
	v, err := c.cache.Load(ctx, ByIDKey(id), func(ctx context.Context) (any, error) {
		var task model.Task
		body := map[string]string{"id": strconv.FormatUint(uint64(id), 10)}
		if err := c.postJSON(ctx, "/api/get-tasks", body, &task); err != nil {
			return nil, err
		}
		return task, nil
	})
	if err != nil {
		return nil, asError(err)
	}

	task := v.(model.Task)
	return &task, nil
}

func (c *Client) DeleteByID(ctx context.Context, id uint) error {
	fields := map[string]string{"id": strconv.FormatUint(uint64(id), 10)}
	if err := c.postMultipart(ctx, "/api/tasks/delete", fields, nil, nil); err != nil {
		return err
	}

	c.cache.Invalidate(ListKey, ByIDKey(id))
	return nil
}

// CreateOrUpdate creates a task when id is 0 and updates task id otherwise.
func (c *Client) CreateOrUpdate(ctx context.Context, fields TaskFields, id uint) (*model.Task, error) {
	path := "/api/tasks/create"
	values := map[string]string{}
	if id != 0 {
		path = "/api/tasks/update"
		values["id"] = strconv.FormatUint(uint64(id), 10)
	}

	set := func(key string, v *string) {
		if v != nil {
			values[key] = *v
		}
	}
	set("title", fields.Title)
	set("description", fields.Description)
	set("priority", fields.Priority)
	set("type", fields.Type)
	set("duedate", fields.DueDate)
	set("entity", fields.Entity)
	set("staff", fields.Staff)

	var task model.Task
	if err := c.postMultipart(ctx, path, values, fields.File, &task); err != nil {
		return nil, err
	}

	c.cache.Invalidate(ListKey, ByIDKey(task.ID))
	return &task, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return networkError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) postMultipart(ctx context.Context, path string, values map[string]string, file *File, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, v := range values {
		if err := w.WriteField(key, v); err != nil {
			return err
		}
	}
	if file != nil {
		part, err := w.CreateFormFile("file", file.Name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return fmt.Errorf("read attachment: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return networkError(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &Error{Kind: ErrNetwork, StatusCode: resp.StatusCode, Message: RetryMessage}
		}
		return &Error{Kind: ErrServer, StatusCode: resp.StatusCode, Message: "invalid response body"}
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return statusError(resp.StatusCode, env.Message, env.Errors)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: ErrServer, StatusCode: resp.StatusCode, Message: "invalid response data"}
	}
	return nil
}

// asError keeps *Error values and reports anything else, such as a
// cancelled wait, as a network failure.
func asError(err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return networkError(err)
}
