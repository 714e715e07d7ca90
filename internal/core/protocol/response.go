package protocol

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// ResponseBuilder assembles and signs Response documents. Signing is
// two-phase: the assertion is signed alone, the signed bytes re-parsed
// and embedded, then the complete response is signed. Both signatures
// are retained so downstream SPs may verify either or both.
type ResponseBuilder struct {
	entityID string
	signer   ports.Signer
	clock    ports.Clock
	logger   *zap.Logger
}

// NewResponseBuilder creates a builder issuing responses as entityID.
func NewResponseBuilder(entityID string, signer ports.Signer, clock ports.Clock, logger *zap.Logger) *ResponseBuilder {
	if clock == nil {
		clock = ports.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseBuilder{entityID: entityID, signer: signer, clock: clock, logger: logger}
}

// BuildAndSign wraps the assertion in a success Response addressed to
// the pending authentication's ACS URL and returns the fully signed
// document. The returned bytes are final; no reformatting may happen
// between here and transmission.
func (b *ResponseBuilder) BuildAndSign(assertion *etree.Element, pending *domain.PendingAuthentication) (*domain.SignedDocument, error) {
	signedAssertion, err := b.signer.SignElement(assertion)
	if err != nil {
		return nil, err
	}

	// Re-parse the signed assertion so the embedded copy carries the
	// exact signed form.
	assertionDoc := etree.NewDocument()
	if err := assertionDoc.ReadFromBytes(signedAssertion.Data); err != nil {
		return nil, domain.SigningError(err)
	}

	response := b.buildResponse(pending)
	response.AddChild(assertionDoc.Root())

	signed, err := b.signer.SignElement(response)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("response signed",
		zap.String("response_id", signed.ElementID),
		zap.String("assertion_id", signedAssertion.ElementID),
		zap.String("in_response_to", pending.RequestID),
		zap.String("destination", pending.ACSURL),
	)
	return signed, nil
}

// buildResponse emits the Response envelope: fresh ID, IssueInstant,
// Destination = ACS URL, InResponseTo = original request ID, Issuer,
// and a success status.
func (b *ResponseBuilder) buildResponse(pending *domain.PendingAuthentication) *etree.Element {
	now := b.clock.Now().UTC()

	response := etree.NewElement("samlp:Response")
	response.CreateAttr("xmlns:samlp", NamespaceProtocol)
	response.CreateAttr("xmlns:saml", NamespaceAssertion)
	response.CreateAttr("ID", NewID())
	response.CreateAttr("IssueInstant", now.Format(TimeFormat))
	response.CreateAttr("Version", SAMLVersion)
	response.CreateAttr("Destination", pending.ACSURL)
	response.CreateAttr("InResponseTo", pending.RequestID)

	issuer := response.CreateElement("saml:Issuer")
	issuer.SetText(b.entityID)

	status := response.CreateElement("samlp:Status")
	statusCode := status.CreateElement("samlp:StatusCode")
	statusCode.CreateAttr("Value", StatusSuccess)

	return response
}
