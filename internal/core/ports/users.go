package ports

import "github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"

// UserStore is the port interface for the authentication collaborator.
// The core never sees credentials, only the resulting Principal.
type UserStore interface {
	// Authenticate verifies the credentials and returns the principal,
	// or an AppError with code auth_failed.
	Authenticate(username, password string) (*domain.Principal, error)

	// Put creates or replaces an account, hashing the plaintext password.
	Put(user *domain.User, password string) error

	// Remove deletes an account.
	Remove(username string) error
}
