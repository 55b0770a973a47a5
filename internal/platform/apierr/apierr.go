package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeNotFound           Code = "NOT_FOUND"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodePatronInactive     Code = "PATRON_INACTIVE"
	CodeOutstandingOverdue Code = "OUTSTANDING_OVERDUE"
	CodeAlreadyReturned    Code = "ALREADY_RETURNED"
	CodeHasDependents      Code = "HAS_DEPENDENTS"
	CodeDuplicateName      Code = "DUPLICATE_NAME"
	CodeInternal           Code = "INTERNAL"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func ErrInvalid(msg string) *Error            { return &Error{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *Error           { return &Error{Code: CodeNotFound, Message: msg} }
func ErrUnavailable(msg string) *Error        { return &Error{Code: CodeUnavailable, Message: msg} }
func ErrPatronInactive(msg string) *Error     { return &Error{Code: CodePatronInactive, Message: msg} }
func ErrOutstandingOverdue(msg string) *Error { return &Error{Code: CodeOutstandingOverdue, Message: msg} }
func ErrAlreadyReturned(msg string) *Error    { return &Error{Code: CodeAlreadyReturned, Message: msg} }
func ErrHasDependents(msg string) *Error      { return &Error{Code: CodeHasDependents, Message: msg} }
func ErrDuplicateName(msg string) *Error      { return &Error{Code: CodeDuplicateName, Message: msg} }
func ErrInternal(msg string) *Error           { return &Error{Code: CodeInternal, Message: msg} }

// ToHTTPStatus maps a taxonomy code to a status. Unknown errors are treated
// as store-level failures and come back as 500.
func ToHTTPStatus(err error) int {
	var api *Error
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeUnavailable, CodePatronInactive, CodeOutstandingOverdue,
			CodeAlreadyReturned, CodeHasDependents, CodeDuplicateName:
			return http.StatusConflict
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

// CodeOf extracts the taxonomy code, defaulting to INTERNAL.
func CodeOf(err error) Code {
	var api *Error
	if errors.As(err, &api) {
		return api.Code
	}
	return CodeInternal
}
