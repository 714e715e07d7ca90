package domain

import (
	"fmt"
	"net/http"
)

// ErrorCode represents categorized error types.
// These codes are stable and can be used for programmatic error handling.
type ErrorCode string

const (
	ErrCodeMalformedRequest      ErrorCode = "malformed_request"
	ErrCodeUntrustedSP           ErrorCode = "untrusted_sp"
	ErrCodeSessionExpired        ErrorCode = "session_expired"
	ErrCodeCertificateMismatch   ErrorCode = "certificate_mismatch"
	ErrCodeCertificateUnreadable ErrorCode = "certificate_unreadable"
	ErrCodeSigningFailure        ErrorCode = "signing_failure"
	ErrCodeSPNotFound            ErrorCode = "sp_not_found"
	ErrCodeAuthFailed            ErrorCode = "auth_failed"
	ErrCodeBadRequest            ErrorCode = "bad_request"
	ErrCodeServiceError          ErrorCode = "service_error"
)

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// AppError is a structured error with code, message, and optional cause.
// The message is safe to show to end users; the cause is for server-side
// logging only and must never reach a response body.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the HTTP status code for this error code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case ErrCodeMalformedRequest, ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeUntrustedSP:
		return http.StatusForbidden
	case ErrCodeSessionExpired, ErrCodeAuthFailed:
		return http.StatusUnauthorized
	case ErrCodeSPNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Title returns a user-friendly title for this error code.
func (c ErrorCode) Title() string {
	switch c {
	case ErrCodeMalformedRequest:
		return "Invalid Authentication Request"
	case ErrCodeUntrustedSP:
		return "Unauthorized Service Provider"
	case ErrCodeSessionExpired:
		return "Session Expired"
	case ErrCodeCertificateMismatch, ErrCodeCertificateUnreadable:
		return "Certificate Error"
	case ErrCodeSigningFailure, ErrCodeServiceError:
		return "Service Error"
	case ErrCodeSPNotFound:
		return "Not Found"
	case ErrCodeAuthFailed:
		return "Authentication Failed"
	case ErrCodeBadRequest:
		return "Invalid Request"
	default:
		return "Error"
	}
}

// CodeOf extracts the ErrorCode from an error, or ErrCodeServiceError
// for errors that are not AppErrors.
func CodeOf(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrCodeServiceError
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}

// JSONErrorResponse is the standard JSON error format for API endpoints.
type JSONErrorResponse struct {
	Error JSONErrorDetail `json:"error"`
}

// JSONErrorDetail contains error details.
type JSONErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewJSONErrorResponse creates a JSON error response from an AppError.
func NewJSONErrorResponse(err *AppError) JSONErrorResponse {
	return JSONErrorResponse{
		Error: JSONErrorDetail{
			Code:    err.Code.String(),
			Message: err.Message,
		},
	}
}

// MalformedRequestError creates a request decode/validation error.
// The reason must be human-readable; callers must never pass a raw
// lower-level parse error through as the message.
func MalformedRequestError(reason string) *AppError {
	return &AppError{Code: ErrCodeMalformedRequest, Message: reason}
}

// UntrustedSPError creates an error for an issuer that is not registered.
// The message is deliberately generic: it must not reveal which service
// providers are trusted.
func UntrustedSPError() *AppError {
	return &AppError{Code: ErrCodeUntrustedSP, Message: "Unauthorized service provider"}
}

// SessionExpiredError creates an error for a missing or expired
// pending authentication.
func SessionExpiredError() *AppError {
	return &AppError{Code: ErrCodeSessionExpired, Message: "Session expired, please restart the sign-in from your application"}
}

// CertificateMismatchError creates a startup-fatal key material error.
func CertificateMismatchError(message string) *AppError {
	return &AppError{Code: ErrCodeCertificateMismatch, Message: message}
}

// CertificateUnreadableError creates a startup-fatal key material error
// with the underlying read/parse failure attached.
func CertificateUnreadableError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeCertificateUnreadable, Message: message, Cause: cause}
}

// SigningError wraps a failed signing operation. Fatal for the request;
// the cause is logged server-side only.
func SigningError(cause error) *AppError {
	return &AppError{Code: ErrCodeSigningFailure, Message: "Internal error", Cause: cause}
}

// SPNotFoundError creates a not-found error for an administrative lookup.
func SPNotFoundError(entityID string) *AppError {
	return &AppError{
		Code:    ErrCodeSPNotFound,
		Message: fmt.Sprintf("The service provider %q is not registered", entityID),
	}
}

// AuthFailedError creates a credential validation error.
func AuthFailedError() *AppError {
	return &AppError{Code: ErrCodeAuthFailed, Message: "Invalid credentials"}
}

// BadRequestError creates a bad request error.
func BadRequestError(message string) *AppError {
	return &AppError{Code: ErrCodeBadRequest, Message: message}
}

// ServiceError creates a generic internal error.
func ServiceError(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeServiceError, Message: message, Cause: cause}
}
