package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Common error codes
const (
	ErrValidation ErrorCode = iota + 1000
	ErrNotFound
	ErrConflict
	ErrExpired
	ErrAuthorization
	ErrInternal
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors
func NewValidation(message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
	}
}

func NewFieldValidation(field, problem string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: fmt.Sprintf("invalid %s: %s", field, problem),
		Fields:  map[string]string{field: problem},
	}
}

func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewConflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

func NewExpired(message string) *AppError {
	return &AppError{
		Code:    ErrExpired,
		Message: message,
	}
}

func NewAuthorization(message string) *AppError {
	return &AppError{
		Code:    ErrAuthorization,
		Message: message,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// CodeOf returns the error code of err, or ErrInternal for errors
// that did not originate from this package.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

func IsValidation(err error) bool    { return CodeOf(err) == ErrValidation }
func IsNotFound(err error) bool      { return CodeOf(err) == ErrNotFound }
func IsConflict(err error) bool      { return CodeOf(err) == ErrConflict }
func IsExpired(err error) bool       { return CodeOf(err) == ErrExpired }
func IsAuthorization(err error) bool { return CodeOf(err) == ErrAuthorization }
