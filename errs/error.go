package errs

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// Application error codes. They map machine-readable categories onto errors
// so the http layer can pick a status code without inspecting messages.
const (
	ECONFLICT     = "conflict"
	EINTERNAL     = "internal"
	EINVALID      = "invalid"
	ENOTFOUND     = "not_found"
	EUNAUTHORIZED = "unauthorized"
)

// statusCodes maps application error codes to HTTP status codes.
var statusCodes = map[string]int{
	ECONFLICT:     http.StatusBadRequest,
	EINTERNAL:     http.StatusInternalServerError,
	EINVALID:      http.StatusBadRequest,
	ENOTFOUND:     http.StatusNotFound,
	EUNAUTHORIZED: http.StatusUnauthorized,
}

// Error is an application error. Its Message is safe to show to the user,
// as opposed to the message of an arbitrary internal error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("bookfeed error: code=%s message=%s", e.Code, e.Message)
}

// Errorf returns a new Error with the given code and formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Errors collects several user-facing validation failures into one error.
// It keeps the order the checks ran in, so the user sees problems in the
// order the form presents the fields.
type Errors []*Error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Message
	}
	return strings.Join(msgs, " ")
}

// Messages returns the user-facing message of every collected error.
func (e Errors) Messages() []string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Message
	}
	return msgs
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	if _, ok := err.(Errors); ok {
		return EINVALID
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := err.(*Error); ok {
		return e.Message
	}
	if e, ok := err.(Errors); ok {
		return e.Error()
	}
	return "Internal error."
}

// StatusCode returns the HTTP status code associated with an application
// error code.
func StatusCode(code string) int {
	if status, ok := statusCodes[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// errorResponse is the json body returned for any failed request.
type errorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

// ReturnError writes an error response to the client. Internal errors get
// logged and replaced with a generic message, everything else passes its
// user-facing message through.
func ReturnError(w http.ResponseWriter, r *http.Request, err error) {
	code := ErrorCode(err)
	if code == EINTERNAL {
		LogError(r, err)
	}
	resp := errorResponse{Error: ErrorMessage(err)}
	if list, ok := err.(Errors); ok {
		resp.Errors = list.Messages()
	}
	w.WriteHeader(StatusCode(code))
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		LogError(r, err)
	}
}

// LogError logs an error together with the request it occurred in.
func LogError(r *http.Request, err error) {
	log.Error().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Err(err).
		Msg("request error")
}
