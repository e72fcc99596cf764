package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error independently of its message.
type Kind string

const (
	KindDuplicateEntity Kind = "duplicate_entity"
	KindNotFound        Kind = "not_found"
	KindInvalidArgument Kind = "invalid_argument"
	KindStorage         Kind = "storage_error"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindInternal        Kind = "internal"
)

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrNotFound) holds for every not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind != "" && t.Kind == e.Kind
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(kind Kind, code int, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Sentinels, for use with errors.Is only. Never mutate them.
var (
	ErrDuplicateEntity = New(KindDuplicateEntity, http.StatusConflict, "Duplicate entity", nil)
	ErrNotFound        = New(KindNotFound, http.StatusNotFound, "Not found", nil)
	ErrInvalidArgument = New(KindInvalidArgument, http.StatusBadRequest, "Invalid argument", nil)
	ErrStorage         = New(KindStorage, http.StatusInternalServerError, "Storage error", nil)
	ErrUnauthorized    = New(KindUnauthorized, http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden       = New(KindForbidden, http.StatusForbidden, "Forbidden", nil)
	ErrInternal        = New(KindInternal, http.StatusInternalServerError, "Internal server error", nil)
)

func DuplicateEntity(message string) *Error {
	return New(KindDuplicateEntity, http.StatusConflict, message, nil)
}

func NotFound(message string) *Error {
	return New(KindNotFound, http.StatusNotFound, message, nil)
}

func InvalidArgument(message string, err error) *Error {
	return New(KindInvalidArgument, http.StatusBadRequest, message, err)
}

// Storage wraps a database or image-store failure; the originating message is kept.
func Storage(message string, err error) *Error {
	return New(KindStorage, http.StatusInternalServerError, message, err)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, http.StatusForbidden, message, nil)
}

// From returns err as an *Error, classifying unknown errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(KindInternal, http.StatusInternalServerError, "Internal server error", err)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	return From(err).Kind
}
