package domain

import (
	"errors"
	"fmt"
)

// Error codes shared across all service operations. The REST layer maps
// these onto HTTP statuses; the codes themselves are transport-agnostic.
const (
	// CodeNotFound indicates a referenced entity (city, user) is absent
	CodeNotFound = "NOT_FOUND"

	// CodeInvalidInput indicates a caller-supplied value is unusable,
	// e.g. an emotion id missing from the static catalog
	CodeInvalidInput = "INVALID_INPUT"

	// CodeBusinessRule indicates a user-correctable policy rejection,
	// e.g. a duplicate selection or an exhausted daily limit
	CodeBusinessRule = "BUSINESS_RULE_VIOLATION"

	// CodeUpstreamUnavailable indicates the upstream weather or quote
	// provider failed or returned an unusable payload
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"

	// CodeStorageFailure indicates the durable write path failed
	CodeStorageFailure = "STORAGE_FAILURE"
)

// DomainError represents service-level failures with a stable machine code,
// a human-readable message, and an optional underlying cause.
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface for DomainError.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// NotFoundError builds a CodeNotFound error for an absent entity.
func NotFoundError(message string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: message}
}

// InvalidInputError builds a CodeInvalidInput error.
func InvalidInputError(message string) *DomainError {
	return &DomainError{Code: CodeInvalidInput, Message: message}
}

// BusinessRuleError builds a CodeBusinessRule error.
func BusinessRuleError(message string) *DomainError {
	return &DomainError{Code: CodeBusinessRule, Message: message}
}

// UpstreamError builds a CodeUpstreamUnavailable error wrapping the
// transport or normalization failure.
func UpstreamError(message string, cause error) *DomainError {
	return &DomainError{Code: CodeUpstreamUnavailable, Message: message, Cause: cause}
}

// StorageError builds a CodeStorageFailure error wrapping the repository
// failure.
func StorageError(message string, cause error) *DomainError {
	return &DomainError{Code: CodeStorageFailure, Message: message, Cause: cause}
}

// ErrorCode extracts the domain error code from err, or empty string when
// err is not a DomainError.
func ErrorCode(err error) string {
	var e *DomainError

	if errors.As(err, &e) {
		return e.Code
	}

	return ""
}
