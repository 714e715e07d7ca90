package samlidp

import (
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/users"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// Re-export the principal model and the user store collaborator.
type Principal = domain.Principal
type User = domain.User
type UserStore = ports.UserStore
type FileUserStore = users.FileStore

var NewFileUserStore = users.NewFileStore
