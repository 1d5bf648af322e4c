// Package errcode defines the error kinds reported by the type system, the
// coercion engine and the executor. Each kind is surfaced to clients as the
// "code" extension of a GraphQL error.
package errcode

import (
	"errors"
	"fmt"
)

type Code string

const (
	// Document errors are raised before execution starts; no data is produced.
	Document Code = "DOCUMENT"
	// Coercion errors come from converting an argument or variable value.
	Coercion Code = "COERCION"
	// Format errors are coercion errors where the input has the wrong shape
	// (e.g. a string offered to an integer scalar).
	Format Code = "FORMAT"
	// Overflow errors are coercion errors where the input has the right shape
	// but does not fit the scalar's range.
	Overflow Code = "OVERFLOW"
	Resolver Code = "RESOLVER"
	// AbstractType errors mean no single object type could be chosen for an
	// interface or union value.
	AbstractType Code = "ABSTRACT_TYPE"
	Cancelled    Code = "CANCELLED"
	Internal     Code = "INTERNAL"
)

// Error is an error tagged with a Code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with code. A nil err yields nil.
func Wrap(code Code, err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		msg = err.Error()
	} else {
		msg = msg + ": " + err.Error()
	}
	return &Error{Code: code, Message: msg, Err: err}
}

func Formatf(format string, args ...any) *Error   { return New(Format, format, args...) }
func Overflowf(format string, args ...any) *Error { return New(Overflow, format, args...) }
func Coercionf(format string, args ...any) *Error { return New(Coercion, format, args...) }

// Of returns the code of the outermost *Error in err's chain, or "" if none.
func Of(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries code anywhere in its chain.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}
