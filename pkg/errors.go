package pkg

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to HTTP statuses with errors.Is; the message
// of the concrete error is what the client sees.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

// Validationf returns an ErrValidation carrying a client-facing message.
func Validationf(format string, args ...interface{}) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// NotFound returns an ErrNotFound for the named resource, e.g. "Doctor".
func NotFound(resource string) error {
	return &kindError{kind: ErrNotFound, msg: resource + " not found"}
}

// CapacityExceeded returns an ErrCapacityExceeded with the given message.
func CapacityExceeded(msg string) error {
	return &kindError{kind: ErrCapacityExceeded, msg: msg}
}
