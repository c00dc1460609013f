package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeConflict      ErrorType = "CONFLICT"
	ErrorTypeStateConflict ErrorType = "STATE_CONFLICT"
	ErrorTypeUnprocessable ErrorType = "UNPROCESSABLE"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal      ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeCurrencyMismatch ErrorCode = "CURRENCY_MISMATCH"

	ErrCodePaymentNotFound      ErrorCode = "PAYMENT_NOT_FOUND"
	ErrCodeRefundNotFound       ErrorCode = "REFUND_NOT_FOUND"
	ErrCodeInvalidPaymentStatus ErrorCode = "INVALID_PAYMENT_STATUS"
	ErrCodeInvalidRefundStatus  ErrorCode = "INVALID_REFUND_STATUS"
	ErrCodeInvalidEventStatus   ErrorCode = "INVALID_EVENT_STATUS"
	ErrCodeAmountMismatch       ErrorCode = "AMOUNT_MISMATCH"
	ErrCodeRefundNotAllowed     ErrorCode = "REFUND_NOT_ALLOWED"
	ErrCodeRefundWindowClosed   ErrorCode = "REFUND_WINDOW_CLOSED"

	ErrCodeDuplicateReservation ErrorCode = "DUPLICATE_RESERVATION"
	ErrCodeFatalPersistence     ErrorCode = "FATAL_PERSISTENCE"

	ErrCodeGatewayConfirmFailed ErrorCode = "GATEWAY_CONFIRM_FAILED"
	ErrCodeGatewayCancelFailed  ErrorCode = "GATEWAY_CANCEL_FAILED"
	ErrCodeRefundFailed         ErrorCode = "REFUND_PROCESSING_FAILED"
	ErrCodeEventPublishFailed   ErrorCode = "EVENT_PUBLISH_FAILED"
	ErrCodeNoTransaction        ErrorCode = "NO_OPEN_TRANSACTION"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// Is matches AppErrors by type and code so sentinel comparisons survive
// WithCause/WithDetails cloning.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if !errors.As(target, &appErr) {
		return false
	}
	return e.Type == appErr.Type && e.Code == appErr.Code
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewStateConflictError reports an operation that is illegal in the
// aggregate's current state.
func NewStateConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeStateConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewUnprocessableError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnprocessable,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewGatewayError wraps a failure reported by the external payment provider.
func NewGatewayError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

var (
	ErrPaymentNotFound = NewNotFoundError("payment not found", ErrCodePaymentNotFound)
	ErrRefundNotFound  = NewNotFoundError("refund not found", ErrCodeRefundNotFound)

	// ErrDuplicateReservation is the typed uniqueness-violation signal the
	// preparation workflow relies on. Repositories translate driver-level
	// unique constraint errors into this value; nothing else maps to it.
	ErrDuplicateReservation = NewConflictError("a payment already exists for this reservation", ErrCodeDuplicateReservation)

	// ErrFatalPersistence means a uniqueness violation fired but the
	// conflicting row could not be read back. That combination indicates a
	// store-level bug, not a recoverable race.
	ErrFatalPersistence = &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeFatalPersistence,
		Message:    "uniqueness violation without a matching row",
		StatusCode: http.StatusInternalServerError,
	}

	ErrAmountMismatch   = NewStateConflictError("requested amount does not match the prepared amount", ErrCodeAmountMismatch)
	ErrRefundNotAllowed = NewUnprocessableError("refund window has closed for this booking", ErrCodeRefundNotAllowed)

	ErrNoTransaction = &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeNoTransaction,
		Message:    "outbox append requires an open transaction",
		StatusCode: http.StatusInternalServerError,
	}
)

// Is and As re-export the standard helpers so callers that alias this
// package over "errors" keep the familiar call sites.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
