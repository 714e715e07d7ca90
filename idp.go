// Package samlidp implements a SAML 2.0 Identity Provider simulator:
// it decodes authentication requests from registered service providers,
// correlates them with a short-lived pending authentication, and issues
// signed assertions over the browser POST binding.
package samlidp

import (
	"crypto/rsa"
	"crypto/x509"

	"go.uber.org/zap"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/metrics"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/request"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/session"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/signature"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/protocol"
)

// Options configures an IdentityProvider.
type Options struct {
	// EntityID is the IdP's own entity ID.
	EntityID string

	// SSOServiceURL is the endpoint AuthnRequests are addressed to;
	// the Destination attribute is validated against it.
	SSOServiceURL string

	// CertificatePath and KeyPath locate the PEM signing material.
	CertificatePath string
	KeyPath         string

	// TrustStore holds the registered service providers. Required.
	TrustStore ports.TrustStore

	// Correlator tracks pending authentications; nil selects the
	// in-memory default.
	Correlator ports.Correlator

	// Metrics records flow metrics; nil selects the noop recorder.
	Metrics ports.MetricsRecorder

	// Clock abstracts time; nil selects the system clock.
	Clock ports.Clock

	// Logger is used across components; nil selects a no-op logger.
	Logger *zap.Logger
}

// IdentityProvider orchestrates the protocol flow: decode and validate
// the request, enforce the trust relationship, correlate a pending
// authentication, then build and sign the response once the principal
// is authenticated. Construction fails fast when the configured key
// material is unusable.
type IdentityProvider struct {
	entityID   string
	keyPair    *signature.KeyPair
	decoder    *request.Decoder
	trust      ports.TrustStore
	correlator ports.Correlator
	assertions *protocol.AssertionBuilder
	responses  *protocol.ResponseBuilder
	metadata   *domain.SignedDocument
	metrics    ports.MetricsRecorder
	logger     *zap.Logger
}

// LoginResult carries a signed response ready for form delivery.
type LoginResult struct {
	// Document holds the final signed bytes; transmit unmodified.
	Document *domain.SignedDocument

	// ACSURL is where the auto-submitting form posts the response.
	ACSURL string

	// RelayState is the opaque pass-through from the original request.
	RelayState string

	// SPEntityID identifies the audience service provider.
	SPEntityID string
}

// New validates the key material, builds the component graph and signs
// the metadata document. Certificate/key mismatches and unreadable
// files are fatal: no IdentityProvider is returned.
func New(opts Options) (*IdentityProvider, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = ports.RealClock{}
	}
	recorder := opts.Metrics
	if recorder == nil {
		recorder = metrics.NewNoopRecorder()
	}
	correlator := opts.Correlator
	if correlator == nil {
		correlator = session.NewCorrelator(clock, logger)
	}

	keyPair, err := signature.LoadKeyPair(opts.CertificatePath, opts.KeyPath)
	if err != nil {
		logger.Error("certificate validation failed", zap.Error(err))
		return nil, err
	}

	signer := signature.NewXMLDsigSigner(keyPair.PrivateKey, keyPair.Certificate)
	publisher := protocol.NewMetadataPublisher(opts.EntityID, opts.SSOServiceURL, keyPair.Certificate, signer, clock)
	metadataDoc, err := publisher.Publish()
	if err != nil {
		logger.Error("metadata generation failed", zap.Error(err))
		return nil, err
	}

	return &IdentityProvider{
		entityID:   opts.EntityID,
		keyPair:    keyPair,
		decoder:    request.NewDecoder(opts.SSOServiceURL, logger),
		trust:      opts.TrustStore,
		correlator: correlator,
		assertions: protocol.NewAssertionBuilder(opts.EntityID, clock, logger),
		responses:  protocol.NewResponseBuilder(opts.EntityID, signer, clock, logger),
		metadata:   metadataDoc,
		metrics:    recorder,
		logger:     logger,
	}, nil
}

// ReceiveAuthnRequest decodes and validates an inbound request,
// enforces the trust relationship, and records the pending
// authentication under the caller's session key. The flow halts before
// any pending state is created when the issuer is not trusted.
func (idp *IdentityProvider) ReceiveAuthnRequest(encoded, relayState, sessionKey string) (*domain.PendingAuthentication, error) {
	req, err := idp.decoder.Decode(encoded)
	if err != nil {
		idp.metrics.RecordAuthnRequest("", ports.OutcomeMalformed)
		return nil, err
	}

	if !idp.trust.Validate(req.Issuer) {
		idp.metrics.RecordAuthnRequest(req.Issuer, ports.OutcomeUntrusted)
		idp.logger.Warn("untrusted SP attempt", zap.String("issuer", req.Issuer))
		return nil, domain.UntrustedSPError()
	}

	pending := idp.correlator.Create(sessionKey, req, relayState)
	idp.metrics.RecordAuthnRequest(req.Issuer, ports.OutcomeAccepted)
	idp.logger.Info("authentication request accepted",
		zap.String("request_id", req.ID),
		zap.String("sp_entity_id", req.Issuer),
	)
	return pending, nil
}

// IssueResponse consumes the pending authentication for the session key
// and returns the signed response for the authenticated principal. The
// pending record is gone afterward whether or not signing succeeds; a
// failed attempt requires a fresh AuthnRequest.
func (idp *IdentityProvider) IssueResponse(sessionKey string, principal *domain.Principal) (*LoginResult, error) {
	pending, err := idp.correlator.Consume(sessionKey)
	if err != nil {
		idp.metrics.RecordSessionExpired()
		return nil, err
	}

	sp, err := idp.trust.Lookup(pending.SPEntityID)
	if err != nil {
		// The SP was deregistered after the request was accepted.
		idp.logger.Warn("SP no longer trusted", zap.String("entity_id", pending.SPEntityID))
		return nil, domain.UntrustedSPError()
	}

	assertion := idp.assertions.Build(principal, pending, sp)
	signed, err := idp.responses.BuildAndSign(assertion, pending)
	if err != nil {
		idp.metrics.RecordSigningFailure()
		idp.logger.Error("response signing failed",
			zap.String("sp_entity_id", sp.EntityID),
			zap.Error(err),
		)
		return nil, err
	}

	idp.metrics.RecordResponseIssued(sp.EntityID)
	idp.logger.Info("response issued",
		zap.String("response_id", signed.ElementID),
		zap.String("in_response_to", pending.RequestID),
		zap.String("sp_entity_id", sp.EntityID),
	)
	return &LoginResult{
		Document:   signed,
		ACSURL:     pending.ACSURL,
		RelayState: pending.RelayState,
		SPEntityID: sp.EntityID,
	}, nil
}

// Metadata returns the signed metadata document, built once at
// construction. The bytes are final; serve them unmodified.
func (idp *IdentityProvider) Metadata() []byte {
	return idp.metadata.Data
}

// EntityID returns the IdP's own entity ID.
func (idp *IdentityProvider) EntityID() string {
	return idp.entityID
}

// SigningKey exposes the private key for collaborators that sign
// non-protocol artifacts (the login cookie).
func (idp *IdentityProvider) SigningKey() *rsa.PrivateKey {
	return idp.keyPair.PrivateKey
}

// Certificate exposes the IdP's signing certificate.
func (idp *IdentityProvider) Certificate() *x509.Certificate {
	return idp.keyPair.Certificate
}
