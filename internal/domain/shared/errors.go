// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrMissingField  = errors.New("missing field")
	ErrInvalidFormat = errors.New("invalid format")
	ErrDuplicate     = errors.New("duplicate entry")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrNotFound           = errors.New("not found")
	ErrNoContent          = errors.New("no content")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "event", "student", "intra"
	Op      string // Operation that failed, e.g., "Parse", "Request"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// UserMessage returns the message without the domain/op prefix.
// CLI front-ends print this to the operator.
func (e *DomainError) UserMessage() string {
	return e.Message
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Event domain errors
var (
	ErrEventURL   = NewDomainError("event", "Parse", ErrMissingField, "event does not have a url")
	ErrTitle      = NewDomainError("event", "Parse", ErrMissingField, "event does not have a title")
	ErrModule     = NewDomainError("event", "Parse", ErrMissingField, "event does not belong to a module")
	ErrTimeStart  = NewDomainError("event", "Parse", ErrMissingField, "event does not have a starting time")
	ErrTimeEnd    = NewDomainError("event", "Parse", ErrMissingField, "event does not have a finish time")
	ErrInvalidDay = NewDomainError("event", "List", ErrInvalidFormat, "date must be formatted as YYYY-MM-DD")
)

// Student domain errors
var (
	ErrStudentLogin     = NewDomainError("student", "Parse", ErrMissingField, "student does not have a login")
	ErrStudentName      = NewDomainError("student", "Parse", ErrMissingField, "student does not have a name")
	ErrInvalidPresence  = NewDomainError("student", "Parse", ErrInvalidFormat, "student has an invalid presence code")
	ErrDuplicateStudent = NewDomainError("student", "Parse", ErrDuplicate, "student is registered twice")
)

// Identity errors
var (
	ErrBadCredentialFormat = NewDomainError("identity", "Validate", ErrInvalidFormat, "invalid autologin link")
	ErrNoLoginField        = NewDomainError("identity", "SignIn", ErrMissingField, "you do not have a login associated with your intranet profile")
)

// Intranet transport errors
var (
	ErrIntraNetwork           = NewDomainError("intra", "Request", ErrExternalService, "no internet access")
	ErrIntraAccessDenied      = NewDomainError("intra", "Request", ErrForbidden, "you do not have permission to access this resource")
	ErrIntraNotFound          = NewDomainError("intra", "Request", ErrNotFound, "resource not found on the intranet")
	ErrIntraUnavailable       = NewDomainError("intra", "Request", ErrServiceUnavailable, "could not connect to the intranet")
	ErrIntraMalformedResponse = NewDomainError("intra", "Parse", ErrInvalidFormat, "failed to parse retrieved data from the intranet")
	ErrIntraEmpty             = NewDomainError("intra", "Parse", ErrNoContent, "empty reply from the intranet")
)

// IsEmpty checks if the error is the transport "nothing returned" outcome.
func IsEmpty(err error) bool {
	return errors.Is(err, ErrIntraEmpty)
}

// IsAccessDenied checks if the intranet refused the credential.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrIntraAccessDenied)
}

// IsEventParse checks if the error comes from event record validation.
func IsEventParse(err error) bool {
	return errors.Is(err, ErrEventURL) ||
		errors.Is(err, ErrTitle) ||
		errors.Is(err, ErrModule) ||
		errors.Is(err, ErrTimeStart) ||
		errors.Is(err, ErrTimeEnd)
}

// Message extracts the human readable message of the first DomainError in
// the chain, falling back to err.Error().
func Message(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.UserMessage()
	}
	return err.Error()
}
