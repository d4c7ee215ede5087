package analysis

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every *Error via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Error reports a rejected call: empty dataset, unknown column, unsupported
// aggregation or malformed predicate.
type Error struct {
	Op      string // e.g. "stats", "filter", "groupby"
	Column  string
	Message string
}

func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: column '%s': %s", e.Op, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Is matches ErrInvalidInput and *Error values with equal fields.
func (e *Error) Is(target error) bool {
	if target == ErrInvalidInput {
		return true
	}
	var other *Error
	if errors.As(target, &other) {
		return e.Op == other.Op && e.Column == other.Column && e.Message == other.Message
	}
	return false
}

func NewInvalidInputError(op, message string) *Error {
	return &Error{Op: op, Message: message}
}

func NewColumnNotFoundError(op, column string) *Error {
	return &Error{Op: op, Column: column, Message: "column does not exist"}
}

func newEmptyDatasetError(op string) *Error {
	return &Error{Op: op, Message: "dataset is empty"}
}
