// Package errors provides the application error types shared by the ledger
// engine and its HTTP surface. All engine operations return *AppError values
// so callers can branch on stable codes instead of matching message strings,
// and so the HTTP layer never leaks internal details to clients.
package errors

import "net/http"

// AppError is a structured application error carrying a stable code, a
// human-readable message, the HTTP status used by the API surface, and an
// optional wrapped internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an
// internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors.
var (
	ErrAuthRequired       = &AppError{Code: "AUTH_REQUIRED", Message: "A signed-in user is required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrDuplicateEmail     = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Store errors. WriteFailed and ReadFailed cover transient document store
// failures; Conflict is returned when a conditional balance update keeps
// losing against concurrent writers.
var (
	ErrWriteFailed       = &AppError{Code: "WRITE_FAILED", Message: "Failed to write to the document store", StatusCode: http.StatusBadGateway}
	ErrReadFailed        = &AppError{Code: "READ_FAILED", Message: "Failed to read from the document store", StatusCode: http.StatusBadGateway}
	ErrConflict          = &AppError{Code: "CONFLICT", Message: "The document was modified concurrently", StatusCode: http.StatusConflict}
	ErrSubscriptionError = &AppError{Code: "SUBSCRIPTION_ERROR", Message: "A live collection subscription failed", StatusCode: http.StatusBadGateway}
)

// Ledger errors.
var (
	ErrAccountNotFound     = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrCategoryNotFound    = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
)
