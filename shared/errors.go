package shared

import (
	"errors"
	"net/http"
)

// AppError carries an HTTP status alongside the underlying error so the
// fiber error handler can render a proper response without handlers caring
// about transport details.
type AppError struct {
	StatusCode int         `json:"code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Err        error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(statusCode int, err error, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// NewBadRequestError rejects invalid input before any mutation happens.
func NewBadRequestError(err error, message string) *AppError {
	return newAppError(http.StatusBadRequest, err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return newAppError(http.StatusUnauthorized, err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return newAppError(http.StatusNotFound, err, message)
}

// NewConflictError marks contention detected by the store. The coordinator
// retries these with backoff before surfacing them.
func NewConflictError(err error, message string) *AppError {
	return newAppError(http.StatusConflict, err, message)
}

func NewTooManyRequestsError(err error, message string) *AppError {
	return newAppError(http.StatusTooManyRequests, err, message)
}

func NewInternalError(err error, message string) *AppError {
	return newAppError(http.StatusInternalServerError, err, message)
}

// NewConsistencyError flags an invariant violation (e.g. stored level does
// not match the level derived from XP). Request paths never auto-correct
// these; they surface as 500s and are logged for operator alerting.
func NewConsistencyError(err error, message string) *AppError {
	return newAppError(http.StatusInternalServerError, err, message)
}

// NewUnavailableError marks a retryable storage failure.
func NewUnavailableError(err error, message string) *AppError {
	return newAppError(http.StatusServiceUnavailable, err, message)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	if appErr, ok := GetAppError(err); ok {
		return appErr.StatusCode == http.StatusNotFound
	}
	return false
}

func IsConflict(err error) bool {
	if appErr, ok := GetAppError(err); ok {
		return appErr.StatusCode == http.StatusConflict
	}
	return false
}
