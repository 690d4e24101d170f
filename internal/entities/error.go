package entities

import "errors"

var (
	ErrValidation = errors.New("invalid date range")
	ErrFetch      = errors.New("fetch rates failed")
	ErrParse      = errors.New("parse rates failed")
)

// ValidationError carries the message shown to the client as is.
type ValidationError struct {
	Message string
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

const (
	MsgInvalidStartDate = "Error: Invalid Start Date"
	MsgInvalidEndDate   = "Error: Invalid End Date"
	MsgInvertedRange    = "Error: The End date must be greater than the Start date"
)
