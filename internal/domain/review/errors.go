package review

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrForbidden              = errors.New("forbidden")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrValidation             = errors.New("validation error")
)

// Los adapters de storage devuelven estos; el service los traduce.
var (
	ErrRecordMissing = errors.New("review store: record not found")
	ErrStatusChanged = errors.New("review store: status changed since read")
)

// Reason distingue por qué se denegó una transición.
type Reason string

const (
	ReasonWrongRole            Reason = "wrong_role"
	ReasonInvalidSourceState   Reason = "invalid_source_state"
	ReasonMissingRequiredField Reason = "missing_required_field"
)

// Error es el error tipado de Submit y Transition.
// errors.Is(err, ErrForbidden) y similares comparan por Kind.
type Error struct {
	Kind    error
	Reason  Reason
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Reason != "" {
		msg += ": " + string(e.Reason)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *Error) Is(target error) bool { return e != nil && e.Kind == target }

func (e *Error) Unwrap() error { return e.Err }

// Denial es lo que devuelve el authorizer. Se convierte en un Error Forbidden.
type Denial struct {
	Reason  Reason
	Field   string
	Message string
}

func (d *Denial) Error() string {
	if d.Message == "" {
		return string(d.Reason)
	}
	return fmt.Sprintf("%s: %s", d.Reason, d.Message)
}

func forbidden(d *Denial) *Error {
	return &Error{Kind: ErrForbidden, Reason: d.Reason, Field: d.Field, Message: d.Message}
}

func notFound(id string) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("record %q not found", id)}
}

func invalid(field, msg string) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: msg}
}

// ReasonOf extrae el motivo de un error Forbidden, o "".
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
