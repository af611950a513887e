package errors

import "net/http"

// ErrServer hides storage failures from clients; the cause is logged.
var ErrServer = &Exception{
	Message:    "Server Error",
	StatusCode: http.StatusInternalServerError,
}
