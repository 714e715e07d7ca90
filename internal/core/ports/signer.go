package ports

import (
	"github.com/beevik/etree"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
)

// Signer is the port interface for XML signing. Implementations produce
// enveloped signatures referencing the element's ID attribute and return
// the final byte sequence; callers must transmit it unmodified.
type Signer interface {
	// SignElement signs the element and returns the finalized document.
	// The element must carry a non-empty ID attribute. The operation is
	// atomic: on error no partial signature is returned.
	SignElement(el *etree.Element) (*domain.SignedDocument, error)
}
