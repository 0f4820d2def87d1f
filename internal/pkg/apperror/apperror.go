// Package apperror carries the failure taxonomy from services to the HTTP layer.
// The Message is what the client sees; Err is the cause and only reaches the logs.
package apperror

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindStorage
	KindIndex
	KindInference
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindIndex:
		return "index"
	case KindInference:
		return "inference"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Storage(message string, err error) error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func Index(message string, err error) error {
	return &Error{Kind: KindIndex, Message: message, Err: err}
}

func Inference(message string, err error) error {
	return &Error{Kind: KindInference, Message: message, Err: err}
}

// WithMessage keeps the kind and cause of err but replaces the public message.
// Errors outside the taxonomy are treated as storage failures.
func WithMessage(err error, message string) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return &Error{Kind: appErr.Kind, Message: message, Err: appErr.Err}
	}
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func StatusCode(err error) int {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
