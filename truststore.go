package samlidp

import (
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/truststore"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// Re-export trust relationship types and store adapters.
type TrustedSP = domain.TrustedSP
type AttributeMapping = domain.AttributeMapping
type TrustStore = ports.TrustStore
type MemoryTrustStore = truststore.Store

var (
	NewTrustStore     = truststore.NewStore
	NewFileTrustStore = truststore.NewFileStore
)
