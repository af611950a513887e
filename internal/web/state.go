package web

import (
	"errors"
	"strconv"

	"task-manager.com/task-manager/pkg/client"
	"task-manager.com/task-manager/pkg/constants"
	model "task-manager.com/task-manager/pkg/models"
)

const (
	ErrorBanner       = "Something Went Wrong! Try Again Later."
	DeletedMessage    = "Record deleted successfully."
	savedMessage      = " Record Added Successfully"
	headingTitleLimit = 8
)

var (
	TaskTypes = []string{"Bug", "Feature", "Improvement"}
	Staff     = []string{"Bruce", "Scarlet", "John"}
	Entities  = []string{"Org A", "Org B"}
)

type Toast struct {
	Kind    string
	Message string
}

func successToast(msg string) *Toast { return &Toast{Kind: "success", Message: msg} }
func errorToast(msg string) *Toast   { return &Toast{Kind: "error", Message: msg} }

func SavedMessage(title string) string {
	return title + savedMessage
}

type ListStatus string

const (
	ListLoading ListStatus = "loading"
	ListSuccess ListStatus = "success"
	ListError   ListStatus = "error"
)

type Row struct {
	SrNo        int
	ID          uint
	Title       string
	Staff       string
	Priority    string
	Type        string
	DueDate     string
	Entity      string
	Description string
}

// ListState drives the list view: loading until the fetch resolves, then
// success with rows or error with the banner.
type ListState struct {
	Status  ListStatus
	Rows    []Row
	Banner  string
	Toast   *Toast
	Confirm *Row
}

func NewListState() *ListState {
	return &ListState{Status: ListLoading}
}

func (s *ListState) Resolve(tasks []model.Task, err error) {
	if s.Status != ListLoading {
		return
	}
	if err != nil {
		s.Status = ListError
		s.Banner = ErrorBanner
		return
	}

	s.Status = ListSuccess
	s.Rows = make([]Row, 0, len(tasks))
	for i, t := range tasks {
		s.Rows = append(s.Rows, Row{
			SrNo:        i + 1,
			ID:          t.ID,
			Title:       t.Title,
			Staff:       t.Staff,
			Priority:    t.Priority.Label(),
			Type:        t.Type,
			DueDate:     t.DueDate,
			Entity:      t.Entity,
			Description: t.Description,
		})
	}
}

// ConfirmDelete opens the confirmation modal for the row with id.
func (s *ListState) ConfirmDelete(id uint) bool {
	for i := range s.Rows {
		if s.Rows[i].ID == id {
			s.Confirm = &s.Rows[i]
			return true
		}
	}
	return false
}

type FormMode string

const (
	FormBlank   FormMode = "blank"
	FormPrefill FormMode = "prefill"
)

type FormValues struct {
	Title       string
	Description string
	Priority    string
	Type        string
	DueDate     string
	Entity      string
	Staff       string
}

type FormState struct {
	Mode   FormMode
	ID     uint
	Values FormValues
	Errors map[string][]string
	Toast  *Toast

	prefilled     bool
	originalTitle string
}

// NewFormState returns a blank create form for id 0, otherwise an edit
// form waiting to be prefilled.
func NewFormState(id uint) *FormState {
	if id == 0 {
		return &FormState{
			Mode:   FormBlank,
			Values: FormValues{Priority: string(constants.PriorityLow)},
		}
	}
	return &FormState{Mode: FormPrefill, ID: id}
}

// Prefill copies task into the form the first time it is called.
func (s *FormState) Prefill(task *model.Task) {
	if s.Mode != FormPrefill || s.prefilled || task == nil {
		return
	}
	s.prefilled = true
	s.originalTitle = task.Title
	s.Values = FormValues{
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		Type:        task.Type,
		DueDate:     task.DueDate,
		Entity:      task.Entity,
		Staff:       task.Staff,
	}
}

// Submitted replaces the values with what the user posted. The form counts
// as prefilled from then on.
func (s *FormState) Submitted(v FormValues) {
	s.prefilled = true
	s.Values = v
}

// Fail records a failed load or save, keeping the current values.
func (s *FormState) Fail(err error) {
	var cerr *client.Error
	if errors.As(err, &cerr) {
		s.Toast = errorToast(cerr.Message)
		s.Errors = cerr.Fields
		return
	}
	s.Toast = errorToast(err.Error())
}

func (s *FormState) Editing() bool {
	return s.Mode == FormPrefill
}

// Heading is the form title, naming the task being edited, shortened.
func (s *FormState) Heading() string {
	if !s.Editing() {
		return "Add Record"
	}
	title := s.originalTitle
	if len([]rune(title)) > headingTitleLimit {
		title = string([]rune(title)[:headingTitleLimit]) + "..."
	}
	if title == "" {
		return "Update Record"
	}
	return "Update " + title + " Record"
}

// Action is the form's post target, keeping the edit query.
func (s *FormState) Action() string {
	if !s.Editing() {
		return "/register"
	}
	return "/register?type=edit&id=" + strconv.FormatUint(uint64(s.ID), 10)
}

func (s *FormState) Fields() client.TaskFields {
	v := s.Values
	return client.TaskFields{
		Title:       client.String(v.Title),
		Description: client.String(v.Description),
		Priority:    client.String(v.Priority),
		Type:        client.String(v.Type),
		DueDate:     client.String(v.DueDate),
		Entity:      client.String(v.Entity),
		Staff:       client.String(v.Staff),
	}
}

func (s *FormState) FieldError(field string) string {
	if msgs := s.Errors[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}
