// Package protocol builds SAML 2.0 protocol documents: assertions,
// responses, and IdP metadata. All XML construction goes through typed
// builder functions; namespace URIs and protocol literals live here as
// named constants.
package protocol

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// SAML 2.0 XML namespaces.
const (
	NamespaceProtocol  = "urn:oasis:names:tc:SAML:2.0:protocol"
	NamespaceAssertion = "urn:oasis:names:tc:SAML:2.0:assertion"
	NamespaceMetadata  = "urn:oasis:names:tc:SAML:2.0:metadata"
)

// SAML 2.0 bindings.
const (
	BindingHTTPPost     = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST"
	BindingHTTPRedirect = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect"
)

// SAML 2.0 status codes.
const (
	StatusSuccess = "urn:oasis:names:tc:SAML:2.0:status:Success"
)

// NameID formats.
const (
	NameIDFormatUnspecified  = "urn:oasis:names:tc:SAML:1.1:nameid-format:unspecified"
	NameIDFormatEmailAddress = "urn:oasis:names:tc:SAML:1.1:nameid-format:emailAddress"
)

// Subject confirmation, authentication context and attribute literals.
const (
	SubjectConfirmationBearer              = "urn:oasis:names:tc:SAML:2.0:cm:bearer"
	AuthnContextPasswordProtectedTransport = "urn:oasis:names:tc:SAML:2.0:ac:classes:PasswordProtectedTransport"
	AttributeNameFormatBasic               = "urn:oasis:names:tc:SAML:2.0:attrname-format:basic"
)

// SAMLVersion is the only protocol version issued or accepted.
const SAMLVersion = "2.0"

// TimeFormat is the instant layout used on issued documents.
const TimeFormat = "2006-01-02T15:04:05Z"

// NewID returns a fresh document identifier: an underscore followed by
// 32 hex characters, valid as an XML ID.
func NewID() string {
	id := uuid.New()
	return "_" + hex.EncodeToString(id[:])
}
