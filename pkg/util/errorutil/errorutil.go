package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewInvalidTransition reports an illegal status change, carrying current
// and requested state for diagnostics.
func NewInvalidTransition(current, requested string) error {
	return NewDomainError("INVALID_TRANSITION",
		fmt.Sprintf("cannot transition ticket from %s to %s", current, requested),
		http.StatusConflict,
		map[string]any{"current_status": current, "requested_status": requested})
}

// NewTicketAlreadyResolved reports a mutation attempted on a terminal ticket.
func NewTicketAlreadyResolved(ticketID, status string) error {
	return NewDomainError("TICKET_ALREADY_RESOLVED",
		"ticket is already resolved or closed",
		http.StatusConflict,
		map[string]any{"ticket_id": ticketID, "status": status})
}

// NewResolutionRequired reports a resolving response without a resolution.
func NewResolutionRequired() error {
	return NewDomainError("RESOLUTION_REQUIRED",
		"resolution is required when marking a ticket resolved",
		http.StatusBadRequest, nil)
}

// NewConcurrentModification reports a lost optimistic-concurrency race.
// Retryable: the caller should re-read and repeat the operation.
func NewConcurrentModification(ticketID string) error {
	return NewDomainError("CONCURRENT_MODIFICATION",
		"record was modified concurrently, retry with a fresh read",
		http.StatusConflict,
		map[string]any{"ticket_id": ticketID})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

func MapError(err error) error {
	return ToDomainError(err)
}
