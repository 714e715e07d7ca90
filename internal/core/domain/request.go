package domain

// AuthnRequest is the structurally validated form of an inbound SAML
// authentication request. Instances are immutable once parsed.
type AuthnRequest struct {
	// ID is the opaque, source-supplied request identifier. It is echoed
	// back as InResponseTo on the response and subject confirmation.
	ID string

	// Issuer is the entity ID the service provider claims for itself.
	// It is only a claim until validated against the trust store.
	Issuer string

	// Destination is the URL the request says it was sent to. Optional;
	// when present it must match the IdP's SSO endpoint exactly.
	Destination string

	// ACSURL is where the signed response must be delivered.
	ACSURL string

	// IssueInstant is the request's own timestamp, kept verbatim.
	IssueInstant string
}
