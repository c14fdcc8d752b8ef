package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Lemon error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE" // 503
	ErrStorageWrite       ErrorCode = "STORAGE_WRITE_ERROR" // 500
	ErrQueryFailed        ErrorCode = "QUERY_FAILED"        // 500
	ErrBootstrapFailed    ErrorCode = "BOOTSTRAP_FAILED"    // 503
	ErrInternal           ErrorCode = "INTERNAL"            // 500
)

// LemonError represents a structured error with code, status, and details.
type LemonError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// Cause is the underlying error, if any. Exposed through Unwrap.
	Cause error
}

// Error implements the error interface.
func (e *LemonError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *LemonError) Unwrap() error {
	return e.Cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *LemonError {
	return &LemonError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing record.
func NewNotFound(identifier string) *LemonError {
	return &LemonError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewStorageUnavailable creates a 503 error for a store that cannot be opened or initialized.
func NewStorageUnavailable(err error) *LemonError {
	return &LemonError{
		Code:    ErrStorageUnavailable,
		Status:  503,
		Message: fmt.Sprintf("storage unavailable: %s", errString(err)),
		Cause:   err,
	}
}

// NewStorageWrite creates a 500 error for a rejected bulk write.
// index is the offending entry's position in the batch, or -1 if unknown.
func NewStorageWrite(index int, err error) *LemonError {
	e := &LemonError{
		Code:    ErrStorageWrite,
		Status:  500,
		Message: fmt.Sprintf("bulk insert failed: %s", errString(err)),
		Cause:   err,
	}
	if index >= 0 {
		e.Message = fmt.Sprintf("bulk insert failed at entry %d: %s", index, errString(err))
		e.Details = map[string]any{"index": index}
	}
	return e
}

// NewQueryFailed creates a 500 error for a failed filtered read.
func NewQueryFailed(err error) *LemonError {
	return &LemonError{
		Code:    ErrQueryFailed,
		Status:  500,
		Message: fmt.Sprintf("query failed: %s", errString(err)),
		Cause:   err,
	}
}

// NewBootstrapFailed creates a 503 error identifying the bootstrap step that failed.
func NewBootstrapFailed(step string, err error) *LemonError {
	return &LemonError{
		Code:    ErrBootstrapFailed,
		Status:  503,
		Message: fmt.Sprintf("bootstrap failed at %s: %s", step, errString(err)),
		Details: map[string]any{"step": step},
		Cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *LemonError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &LemonError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Cause:   err,
	}
}

// Is checks if err, or any LemonError in its cause chain, has the given code.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		var lErr *LemonError
		if !stderrors.As(err, &lErr) {
			return false
		}
		if lErr.Code == code {
			return true
		}
		err = lErr.Cause
	}
	return false
}

// As is errors.As for callers that shadow the standard errors package.
func As(err error) (*LemonError, bool) {
	var lErr *LemonError
	if stderrors.As(err, &lErr) {
		return lErr, true
	}
	return nil, false
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
