/*
Package typedtable – error types.

Every error surfaced by the package is an *Error carrying a Code. Codes are
matched with errors.Is against the sentinel values below.
*/
package typedtable

import "fmt"

// ErrorCode is a well-known error category string.
type ErrorCode string

const (
	CodeUnsupportedFieldType ErrorCode = "UnsupportedFieldType"
	CodeMissingArgument      ErrorCode = "MissingArgument"
	CodeArgument             ErrorCode = "ArgumentError"
	CodeTypeMismatch         ErrorCode = "TypeMismatch"
	CodeWire                 ErrorCode = "WireError"
	CodeUnprocessed          ErrorCode = "Unprocessed"
	CodeRuntime              ErrorCode = "RuntimeError"
)

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrUnsupportedFieldType = &Error{Code: CodeUnsupportedFieldType}
	ErrMissingArgument      = &Error{Code: CodeMissingArgument}
	ErrArgument             = &Error{Code: CodeArgument}
	ErrTypeMismatch         = &Error{Code: CodeTypeMismatch}
	ErrWire                 = &Error{Code: CodeWire}
	ErrUnprocessed          = &Error{Code: CodeUnprocessed}
	ErrRuntime              = &Error{Code: CodeRuntime}
)

// Error is the general error. It carries an optional Code and a free-form
// Context map for extra debugging data.
type Error struct {
	Message string
	Code    ErrorCode
	Context map[string]any
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, msg)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// NewError constructs an Error.
func NewError(msg string, opts ...func(*Error)) *Error {
	err := &Error{Message: msg}
	for _, o := range opts {
		o(err)
	}
	return err
}

// WithCode sets the error code.
func WithCode(c ErrorCode) func(*Error) {
	return func(e *Error) { e.Code = c }
}

// WithContext attaches a context map.
func WithContext(ctx map[string]any) func(*Error) {
	return func(e *Error) { e.Context = ctx }
}

// WithCause wraps an underlying error.
func WithCause(cause error) func(*Error) {
	return func(e *Error) { e.Cause = cause }
}

// unsupportedType builds the registration-time failure for a field whose
// declared type has no wire variant.
func unsupportedType(field string, declared any, reason string) *Error {
	msg := fmt.Sprintf("Unsupported type %v for field %q", declared, field)
	if reason != "" {
		msg += " (" + reason + ")"
	}
	return NewError(msg, WithCode(CodeUnsupportedFieldType),
		WithContext(map[string]any{"field": field, "type": fmt.Sprint(declared)}))
}

// missingArgument reports a nil required collaborator.
func missingArgument(name string) *Error {
	return NewError("Missing required argument \""+name+"\"", WithCode(CodeMissingArgument),
		WithContext(map[string]any{"argument": name}))
}

// argumentError is for invalid argument / configuration errors.
func argumentError(msg string) *Error {
	return NewError(msg, WithCode(CodeArgument))
}
