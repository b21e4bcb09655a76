package errors

import (
	"errors"
	"fmt"
)

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeInvalidInput          ErrCode = "INVALID_INPUT"
	ErrCodeUserNotFound          ErrCode = "USER_NOT_FOUND"
	ErrCodeUpstreamServer        ErrCode = "UPSTREAM_SERVER_ERROR"
	ErrCodeMalformedUpstream     ErrCode = "MALFORMED_UPSTREAM_RESPONSE"
	ErrCodeInvalidRepositoryData ErrCode = "INVALID_REPOSITORY_DATA"
	ErrCodeBranchFetchFailed     ErrCode = "BRANCH_FETCH_FAILED"
	ErrCodeNotAcceptable         ErrCode = "NOT_ACCEPTABLE"
	ErrCodeUnsupportedMediaType  ErrCode = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeInternal              ErrCode = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	// Subject is the username or owner/repo the failure relates to
	Subject string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the whole aggregation may be re-run after this error
func (e *AppError) Retryable() bool {
	switch e.Code {
	case ErrCodeUpstreamServer, ErrCodeBranchFetchFailed:
		return true
	}
	return false
}

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}

// NewUserNotFoundError creates a new user not found error
func NewUserNotFoundError(username string) *AppError {
	return &AppError{
		Code:    ErrCodeUserNotFound,
		Message: fmt.Sprintf("User not found: %s", username),
		Subject: username,
	}
}

// NewUpstreamServerError creates a new upstream server error
func NewUpstreamServerError(username string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeUpstreamServer,
		Message: fmt.Sprintf("Server error occurred while fetching repositories for user: %s", username),
		Subject: username,
		Err:     err,
	}
}

// NewMalformedUpstreamError creates a new malformed upstream response error
func NewMalformedUpstreamError(subject string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeMalformedUpstream,
		Message: "upstream returned a response that could not be decoded",
		Subject: subject,
		Err:     err,
	}
}

// NewInvalidRepositoryDataError creates a new invalid repository data error
func NewInvalidRepositoryDataError(subject string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidRepositoryData,
		Message: "Invalid repository data",
		Subject: subject,
	}
}

// NewBranchFetchFailedError creates a new branch fetch error for owner/repo
func NewBranchFetchFailedError(fullName string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeBranchFetchFailed,
		Message: fmt.Sprintf("failed to fetch branches for %s", fullName),
		Subject: fullName,
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code of the first AppError in the chain, or ErrCodeInternal
func CodeOf(err error) ErrCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsRetryable checks if the error allows the pipeline to be retried
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable()
	}
	return false
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return CodeOf(err) == ErrCodeInvalidInput
}

// IsUserNotFound checks if the error is a user not found error
func IsUserNotFound(err error) bool {
	return CodeOf(err) == ErrCodeUserNotFound
}

// IsUpstreamServerError checks if the error is an upstream server error
func IsUpstreamServerError(err error) bool {
	return CodeOf(err) == ErrCodeUpstreamServer
}
