package errors

import "fmt"

type FieldError struct {
	Field   string
	Message string
}

// ValidationException carries every failed rule, in rule order.
type ValidationException struct {
	Failures []FieldError
}

func (e *ValidationException) Add(field, message string) {
	e.Failures = append(e.Failures, FieldError{Field: field, Message: message})
}

func (e *ValidationException) Empty() bool {
	return len(e.Failures) == 0
}

func (e *ValidationException) Error() string {
	if len(e.Failures) == 0 {
		return "The given data was invalid."
	}
	msg := e.Failures[0].Message
	switch more := len(e.Failures) - 1; {
	case more == 1:
		msg += " (and 1 more error)"
	case more > 1:
		msg += fmt.Sprintf(" (and %d more errors)", more)
	}
	return msg
}

// Fields groups the messages by field name.
func (e *ValidationException) Fields() map[string][]string {
	out := make(map[string][]string, len(e.Failures))
	for _, f := range e.Failures {
		out[f.Field] = append(out[f.Field], f.Message)
	}
	return out
}
