package samlidp

import (
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/signature"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// Re-export signing types and key material helpers.
type SignedDocument = domain.SignedDocument
type Signer = ports.Signer
type XMLDsigSigner = signature.XMLDsigSigner
type KeyPair = signature.KeyPair

var (
	NewXMLDsigSigner = signature.NewXMLDsigSigner
	LoadKeyPair      = signature.LoadKeyPair
	LoadCertificate  = signature.LoadCertificate
	LoadPrivateKey   = signature.LoadPrivateKey
	VerifyKeyPair    = signature.VerifyKeyPair
)
