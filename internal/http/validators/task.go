package validators

import (
	"fmt"
	"path/filepath"
	"strings"

	dto "task-manager.com/task-manager/internal/data_models"
	apperrors "task-manager.com/task-manager/internal/errors"
	"task-manager.com/task-manager/pkg/constants"
	model "task-manager.com/task-manager/pkg/models"
)

type rule struct {
	field   string
	check   func(r *dto.TaskRequest) bool
	message string
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/webp": true,
}

type TaskValidator struct {
	createRules []rule
	updateRules []rule
}

func NewTaskValidator(maxUploadKB int64) *TaskValidator {
	fileRules := []rule{
		{"file", isImage, "The file field must be an image."},
		{"file", maxSize(maxUploadKB), fmt.Sprintf("The file field must not be greater than %d kilobytes.", maxUploadKB)},
	}

	textRules := []rule{
		stringRule("description"),
		stringRule("entity"),
		stringRule("staff"),
	}

	createRules := []rule{
		{"title", required(func(r *dto.TaskRequest) *string { return r.Title }), "The title field is required."},
		stringRule("title"),
		{"priority", required(func(r *dto.TaskRequest) *string { return r.Priority }), "The priority field is required."},
		{"priority", validPriority, "The selected priority is invalid."},
		{"type", required(func(r *dto.TaskRequest) *string { return r.Type }), "The type field is required."},
		stringRule("type"),
		{"duedate", required(func(r *dto.TaskRequest) *string { return r.DueDate }), "The duedate field is required."},
		{"duedate", validDate, "The duedate field must be a valid date."},
	}

	updateRules := []rule{
		{"id", required(func(r *dto.TaskRequest) *string { return r.ID }), "The id field is required."},
		{"title", filledIfPresent(func(r *dto.TaskRequest) *string { return r.Title }), "The title field is required."},
		stringRule("title"),
		{"priority", priorityIfPresent, "The selected priority is invalid."},
		{"type", filledIfPresent(func(r *dto.TaskRequest) *string { return r.Type }), "The type field is required."},
		stringRule("type"),
		{"duedate", filledIfPresent(func(r *dto.TaskRequest) *string { return r.DueDate }), "The duedate field is required."},
		{"duedate", validDate, "The duedate field must be a valid date."},
	}

	createRules = append(append(createRules, textRules...), fileRules...)
	updateRules = append(append(updateRules, textRules...), fileRules...)

	return &TaskValidator{
		createRules: createRules,
		updateRules: updateRules,
	}
}

// ValidateCreateTaskRequest returns a *apperrors.ValidationException listing
// every failed rule, or nil.
func (v *TaskValidator) ValidateCreateTaskRequest(r *dto.TaskRequest) error {
	return run(v.createRules, r)
}

func (v *TaskValidator) ValidateUpdateTaskRequest(r *dto.TaskRequest) error {
	return run(v.updateRules, r)
}

func run(rules []rule, r *dto.TaskRequest) error {
	failures := &apperrors.ValidationException{}
	for _, rl := range rules {
		if !rl.check(r) {
			failures.Add(rl.field, rl.message)
		}
	}
	if failures.Empty() {
		return nil
	}
	return failures
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func required(get func(*dto.TaskRequest) *string) func(*dto.TaskRequest) bool {
	return func(r *dto.TaskRequest) bool { return !blank(get(r)) }
}

func filledIfPresent(get func(*dto.TaskRequest) *string) func(*dto.TaskRequest) bool {
	return func(r *dto.TaskRequest) bool {
		v := get(r)
		return v == nil || !blank(v)
	}
}

// stringRule rejects a field that arrived as a non-string JSON value.
func stringRule(field string) rule {
	return rule{
		field:   field,
		check:   func(r *dto.TaskRequest) bool { return !r.NonString[field] },
		message: fmt.Sprintf("The %s field must be a string.", field),
	}
}

// The rules below pass on absent or blank values; presence is checked by
// required and filledIfPresent.

func validPriority(r *dto.TaskRequest) bool {
	return blank(r.Priority) || priorityIfPresent(r)
}

// priorityIfPresent rejects a supplied blank priority, which update has no
// required rule to report.
func priorityIfPresent(r *dto.TaskRequest) bool {
	if r.Priority == nil {
		return true
	}
	return constants.Priority(strings.TrimSpace(*r.Priority)).Valid()
}

func validDate(r *dto.TaskRequest) bool {
	if blank(r.DueDate) {
		return true
	}
	_, ok := model.ParseDueDate(*r.DueDate)
	return ok
}

func isImage(r *dto.TaskRequest) bool {
	if r.Upload == nil {
		return blank(r.FileValue)
	}
	if imageTypes[r.Upload.ContentType] {
		return true
	}
	isSVG := strings.EqualFold(filepath.Ext(r.Upload.Filename), ".svg")
	return isSVG && (strings.HasPrefix(r.Upload.ContentType, "text/xml") ||
		strings.HasPrefix(r.Upload.ContentType, "text/plain") ||
		strings.HasPrefix(r.Upload.ContentType, "image/svg+xml"))
}

func maxSize(maxKB int64) func(*dto.TaskRequest) bool {
	return func(r *dto.TaskRequest) bool {
		return r.Upload == nil || r.Upload.Size <= maxKB*1024
	}
}
