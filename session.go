package samlidp

import (
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/session"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// Re-export pending-authentication tracking.
type PendingAuthentication = domain.PendingAuthentication
type Correlator = ports.Correlator
type MemoryCorrelator = session.Correlator

// PendingAuthnTTL is how long a pending authentication stays valid.
const PendingAuthnTTL = domain.PendingAuthnTTL

var NewCorrelator = session.NewCorrelator
