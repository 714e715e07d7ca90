package ports

import "github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"

// Correlator is the port interface for pending-authentication tracking.
// One live record per session key; consumed exactly once.
type Correlator interface {
	// Create stores a pending record for the session key, discarding any
	// prior pending state for that key first. A new authentication
	// attempt always invalidates an older one.
	Create(sessionKey string, req *domain.AuthnRequest, relayState string) *domain.PendingAuthentication

	// Consume returns and deletes the record if it has not expired.
	// Expired or missing records yield an AppError with code
	// session_expired; stale records are deleted regardless.
	Consume(sessionKey string) (*domain.PendingAuthentication, error)
}
