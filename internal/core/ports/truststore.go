package ports

import "github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"

// TrustStore is the port interface for the service-provider registry.
// Reads must be safe for concurrent use without synchronization on the
// caller's side; administrative writes are serialized by implementations.
type TrustStore interface {
	// Validate reports whether a TrustedSP with the entity ID exists.
	Validate(entityID string) bool

	// Lookup returns the record for the entity ID, or an AppError with
	// code sp_not_found.
	Lookup(entityID string) (*domain.TrustedSP, error)

	// Register adds a new record. Uniqueness on EntityID and on Name
	// (when set) is enforced before the write commits.
	Register(sp *domain.TrustedSP) error

	// Update replaces an existing record, keyed by EntityID.
	Update(sp *domain.TrustedSP) error

	// Remove deletes a record.
	Remove(entityID string) error

	// All returns the registered SPs in registration order.
	All() []*domain.TrustedSP
}
