package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service failure so handlers can map it to an HTTP
// status without string matching.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindConflict
	KindBadRequest
	KindUnauthorized
)

// Error is a classified domain failure with a user-facing reason. Unexpected
// storage faults get wrapped into a generic BadRequest-class Error; already
// classified errors must pass through services unchanged.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func BadRequestf(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the classification of err, or 0 for unclassified errors.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// wrapStorageErr keeps classified errors intact and hides raw storage
// failures behind a generic message.
func wrapStorageErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return BadRequestf(format, args...)
}
