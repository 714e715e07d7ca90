package samlidp

import (
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
)

// Re-export error types from the domain package.
type ErrorCode = domain.ErrorCode
type AppError = domain.AppError
type JSONErrorResponse = domain.JSONErrorResponse
type JSONErrorDetail = domain.JSONErrorDetail

// Re-export error code constants.
const (
	ErrCodeMalformedRequest      = domain.ErrCodeMalformedRequest
	ErrCodeUntrustedSP           = domain.ErrCodeUntrustedSP
	ErrCodeSessionExpired        = domain.ErrCodeSessionExpired
	ErrCodeCertificateMismatch   = domain.ErrCodeCertificateMismatch
	ErrCodeCertificateUnreadable = domain.ErrCodeCertificateUnreadable
	ErrCodeSigningFailure        = domain.ErrCodeSigningFailure
	ErrCodeSPNotFound            = domain.ErrCodeSPNotFound
	ErrCodeAuthFailed            = domain.ErrCodeAuthFailed
	ErrCodeBadRequest            = domain.ErrCodeBadRequest
	ErrCodeServiceError          = domain.ErrCodeServiceError
)

// Re-export error constructors and helpers.
var (
	MalformedRequestError      = domain.MalformedRequestError
	UntrustedSPError           = domain.UntrustedSPError
	SessionExpiredError        = domain.SessionExpiredError
	CertificateMismatchError   = domain.CertificateMismatchError
	CertificateUnreadableError = domain.CertificateUnreadableError
	SigningError               = domain.SigningError
	SPNotFoundError            = domain.SPNotFoundError
	AuthFailedError            = domain.AuthFailedError
	BadRequestError            = domain.BadRequestError
	ServiceError               = domain.ServiceError
	NewJSONErrorResponse       = domain.NewJSONErrorResponse
	CodeOf                     = domain.CodeOf
	IsCode                     = domain.IsCode
)
