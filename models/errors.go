package models

import "fmt"

type ErrorNotFound struct {
	Resource string
	ID       interface{}
}

func (e *ErrorNotFound) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

type ErrorConflict struct {
	Message string
}

func (e *ErrorConflict) Error() string {
	return e.Message
}

type ErrorUnauthorized struct {
	Message string
}

func (e *ErrorUnauthorized) Error() string {
	return e.Message
}

// ErrorValidation carries the full validation report back to the caller.
type ErrorValidation struct {
	Report *ValidationReport
}

func (e *ErrorValidation) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Report.Errors))
}
