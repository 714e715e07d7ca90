package samlidp

import (
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/request"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
)

// Re-export the validated request type and the decoder adapter.
type AuthnRequest = domain.AuthnRequest
type RequestDecoder = request.Decoder

var (
	NewRequestDecoder = request.NewDecoder
	EncodeRedirect    = request.EncodeRedirect
)
