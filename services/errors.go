package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeProvider   ErrorType = "provider"
	ErrorTypeExhaustion ErrorType = "exhaustion"
	ErrorTypeCanceled   ErrorType = "canceled"
	ErrorTypeRecording  ErrorType = "recording"
	ErrorTypeInternal   ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Validation errors: rejected before any provider is contacted
	ErrInvalidInput     = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrMissingTask      = NewDomainError(ErrorTypeValidation, "task is required", nil)
	ErrMissingAssetKind = NewDomainError(ErrorTypeValidation, "asset kind is required", nil)
	ErrMissingPayload   = NewDomainError(ErrorTypeValidation, "input payload is required", nil)
	ErrUnknownTask      = NewDomainError(ErrorTypeValidation, "unknown task kind", nil)
	ErrUnknownAssetKind = NewDomainError(ErrorTypeValidation, "unknown asset kind", nil)

	// Not found errors
	ErrProviderNotFound = NewDomainError(ErrorTypeNotFound, "provider not found", nil)

	// Provider errors: single-attempt failures, recovered by advancing the chain
	ErrProviderUnavailable = NewDomainError(ErrorTypeProvider, "provider unavailable", nil)
	ErrProviderTimeout     = NewDomainError(ErrorTypeProvider, "provider attempt timed out", nil)

	// Exhaustion: every chain entry failed, or the chain was empty
	ErrChainExhausted    = NewDomainError(ErrorTypeExhaustion, "all providers in chain failed", nil)
	ErrNoCapableProvider = NewDomainError(ErrorTypeExhaustion, "no capable provider", nil)

	// Cancellation: the caller abandoned the request mid-dispatch
	ErrRequestCanceled = NewDomainError(ErrorTypeCanceled, "request canceled", nil)

	// Recording: usage sink failures, swallowed and logged locally
	ErrRecordingFailed = NewDomainError(ErrorTypeRecording, "usage recording failed", nil)

	// Internal errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal error", nil)
)

// Error type checking helper functions

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsProviderError checks if an error is a single-attempt provider failure
func IsProviderError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeProvider
	}
	return false
}

// IsExhaustionError checks if an error is a chain exhaustion error
func IsExhaustionError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeExhaustion
	}
	return false
}

// IsCanceledError checks if an error is a cancellation error
func IsCanceledError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeCanceled
	}
	return false
}

// IsRecordingError checks if an error is a usage recording error
func IsRecordingError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeRecording
	}
	return false
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeInternal
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapProvider wraps an error as a provider failure
func WrapProvider(message string, err error) error {
	return NewDomainError(ErrorTypeProvider, message, err)
}
