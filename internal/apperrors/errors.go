package apperrors

import (
	"errors"
	"fmt"
)

// InputError marks a request the caller must fix: empty portfolio, too
// few holdings, not enough price history. It is surfaced verbatim, with
// an optional remediation hint.
type InputError struct {
	Msg  string
	Hint string
}

func (e *InputError) Error() string {
	if e.Hint != "" {
		return e.Msg + ". " + e.Hint
	}
	return e.Msg
}

// NewInput builds an InputError without a hint.
func NewInput(format string, args ...interface{}) *InputError {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// NewInputWithHint builds an InputError carrying a remediation hint.
func NewInputWithHint(hint, format string, args ...interface{}) *InputError {
	return &InputError{Msg: fmt.Sprintf(format, args...), Hint: hint}
}

// AccessError marks an authorization failure reported by the portfolio
// service. The analytics core never decides access itself.
type AccessError struct {
	Msg string
}

func (e *AccessError) Error() string { return e.Msg }

// NewAccess builds an AccessError.
func NewAccess(format string, args ...interface{}) *AccessError {
	return &AccessError{Msg: fmt.Sprintf(format, args...)}
}

// IsInput reports whether err is (or wraps) an InputError.
func IsInput(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// IsAccess reports whether err is (or wraps) an AccessError.
func IsAccess(err error) bool {
	var ae *AccessError
	return errors.As(err, &ae)
}

// ErrNotFound is returned by lookups when the requested entity or quote
// is absent. Callers decide whether that is fatal or recoverable.
var ErrNotFound = errors.New("not found")
