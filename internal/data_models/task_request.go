package dto

import (
	"io"
)

// TaskRequest is the parsed body of a create or update call. A nil field
// was not supplied by the client.
type TaskRequest struct {
	ID          *string
	Title       *string
	Description *string
	Priority    *string
	Type        *string
	DueDate     *string
	Entity      *string
	Staff       *string

	// FileValue is set when "file" arrived as a plain form value rather
	// than an uploaded part.
	FileValue *string
	Upload    *Upload

	// NonString holds the keys whose JSON value was a number, boolean,
	// object or array.
	NonString map[string]bool
}

// Upload describes an attached file. ContentType is sniffed from the
// content, not taken from the client.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FromFields builds a TaskRequest from raw body values, keeping only the
// keys that were present.
func FromFields(fields map[string]string) TaskRequest {
	pick := func(key string) *string {
		v, ok := fields[key]
		if !ok {
			return nil
		}
		return &v
	}

	return TaskRequest{
		ID:          pick("id"),
		Title:       pick("title"),
		Description: pick("description"),
		Priority:    pick("priority"),
		Type:        pick("type"),
		DueDate:     pick("duedate"),
		Entity:      pick("entity"),
		Staff:       pick("staff"),
		FileValue:   pick("file"),
	}
}
