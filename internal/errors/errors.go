package errors

import "fmt"

// Error codes
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeInvalidState  = "INVALID_STATE"
	ErrCodeTurnViolation = "TURN_VIOLATION"
	ErrCodeIllegalMove   = "ILLEGAL_MOVE"
	ErrCodeNoOffer       = "NO_DRAW_OFFER"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "TURN_VIOLATION")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInvalidStateError signals an operation not permitted in the game's
// current lifecycle status.
func NewInvalidStateError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidState,
		Message: message,
		Status:  409,
	}
}

// NewTurnViolationError signals a move attempted by the player not to move.
func NewTurnViolationError() *AppError {
	return &AppError{
		Code:    ErrCodeTurnViolation,
		Message: "not your turn",
		Status:  409,
	}
}

// NewIllegalMoveError signals a move rejected by the rules engine.
func NewIllegalMoveError(move string) *AppError {
	return &AppError{
		Code:    ErrCodeIllegalMove,
		Message: fmt.Sprintf("illegal move: %s", move),
		Status:  422,
	}
}

// NewNoOfferError signals an accept-draw with no pending offer.
func NewNoOfferError() *AppError {
	return &AppError{
		Code:    ErrCodeNoOffer,
		Message: "no draw has been offered",
		Status:  409,
	}
}

// NewConflictError signals a concurrent-write race or duplicate result.
// Retryable: the caller may re-read the game and try again.
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
		Status:  409,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}
