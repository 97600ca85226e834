package jsonmeta

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json/jsontext"
)

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	CodeMalformedDocument ErrorCode = "malformed_document"
	CodeInvalidArgument   ErrorCode = "invalid_argument"
)

// ErrMalformedDocument matches, via errors.Is, every error reported for a
// document that does not fit the metadata it was read with.
var ErrMalformedDocument = NewError(CodeMalformedDocument, "malformed document")

// Error is the error type returned by Marshal, Unmarshal and the generated
// read and write routines.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	// Err is the underlying cause, if any.
	Err error `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Err:     e.Err,
	}
}

// Malformedf reports a malformed document.
func Malformedf(format string, args ...any) *Error {
	return Errorf(CodeMalformedDocument, format, args...)
}

// wrapRead converts an error returned by the token decoder into a
// malformed-document error. Errors that already carry a code pass through.
func wrapRead(err error) error {
	if err == nil {
		return nil
	}
	var metaErr *Error
	if errors.As(err, &metaErr) {
		return err
	}
	var syntaxErr *jsontext.SyntacticError
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &Error{Code: CodeMalformedDocument, Message: "unexpected end of document", Err: err}
	case errors.As(err, &syntaxErr):
		return &Error{Code: CodeMalformedDocument, Message: "invalid JSON", Err: err}
	default:
		return &Error{Code: CodeMalformedDocument, Message: "read failed", Err: err}
	}
}

// atProperty annotates err with the property path it occurred under.
// Paths accumulate innermost first and are joined outermost first.
func atProperty(err error, name string) error {
	var metaErr *Error
	if !errors.As(err, &metaErr) {
		return err
	}
	path, _ := metaErr.Details["path"].(string)
	if path == "" {
		path = name
	} else {
		path = name + "." + path
	}
	return metaErr.WithDetail("path", path)
}

// kindName describes a token kind for error messages.
func kindName(k jsontext.Kind) string {
	switch k {
	case 'n':
		return "null"
	case 'f', 't':
		return "boolean"
	case '"':
		return "string"
	case '0':
		return "number"
	case '{':
		return "object start"
	case '}':
		return "object end"
	case '[':
		return "array start"
	case ']':
		return "array end"
	default:
		return "invalid token"
	}
}
