package protocol

import (
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// Timing windows on issued assertions.
const (
	// SubjectConfirmationTTL bounds how long the bearer confirmation
	// stays usable at the SP.
	SubjectConfirmationTTL = 5 * time.Minute

	// ConditionsNotBeforeSkew tolerates clock drift between IdP and SP.
	ConditionsNotBeforeSkew = 5 * time.Minute

	// ConditionsTTL bounds overall assertion validity.
	ConditionsTTL = time.Hour
)

// AssertionBuilder constructs assertion documents for authenticated
// principals. One builder serves all flows; every Build call allocates
// an independent document.
type AssertionBuilder struct {
	entityID string
	clock    ports.Clock
	logger   *zap.Logger
}

// NewAssertionBuilder creates a builder issuing assertions as entityID.
func NewAssertionBuilder(entityID string, clock ports.Clock, logger *zap.Logger) *AssertionBuilder {
	if clock == nil {
		clock = ports.RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssertionBuilder{entityID: entityID, clock: clock, logger: logger}
}

// Build assembles the assertion for the principal under the SP's
// attribute contract. Element order follows the schema: Issuer, Subject,
// Conditions, AuthnStatement, AttributeStatement. The returned element
// declares its own namespace so it can be signed and verified standalone.
func (b *AssertionBuilder) Build(principal *domain.Principal, pending *domain.PendingAuthentication, sp *domain.TrustedSP) *etree.Element {
	now := b.clock.Now().UTC()

	assertion := etree.NewElement("saml:Assertion")
	assertion.CreateAttr("xmlns:saml", NamespaceAssertion)
	assertion.CreateAttr("ID", NewID())
	assertion.CreateAttr("IssueInstant", now.Format(TimeFormat))
	assertion.CreateAttr("Version", SAMLVersion)

	issuer := assertion.CreateElement("saml:Issuer")
	issuer.SetText(b.entityID)

	assertion.AddChild(b.buildSubject(principal, pending, sp, now))
	assertion.AddChild(b.buildConditions(sp, now))
	assertion.AddChild(b.buildAuthnStatement(now))

	if attrs := b.buildAttributeStatement(principal, sp); attrs != nil {
		assertion.AddChild(attrs)
	}

	return assertion
}

// buildSubject emits NameID plus the bearer subject confirmation bound
// to the original request.
func (b *AssertionBuilder) buildSubject(principal *domain.Principal, pending *domain.PendingAuthentication, sp *domain.TrustedSP, now time.Time) *etree.Element {
	subject := etree.NewElement("saml:Subject")

	nameID := subject.CreateElement("saml:NameID")
	nameID.CreateAttr("Format", NameIDFormatUnspecified)
	nameID.SetText(principal.SubjectID)

	confirmation := subject.CreateElement("saml:SubjectConfirmation")
	confirmation.CreateAttr("Method", SubjectConfirmationBearer)

	data := confirmation.CreateElement("saml:SubjectConfirmationData")
	data.CreateAttr("NotOnOrAfter", now.Add(SubjectConfirmationTTL).Format(TimeFormat))
	data.CreateAttr("Recipient", sp.ACSURL)
	data.CreateAttr("InResponseTo", pending.RequestID)

	return subject
}

// buildConditions emits the validity window and the audience
// restriction. The audience is the SP's entity ID, never its ACS URL.
func (b *AssertionBuilder) buildConditions(sp *domain.TrustedSP, now time.Time) *etree.Element {
	conditions := etree.NewElement("saml:Conditions")
	conditions.CreateAttr("NotBefore", now.Add(-ConditionsNotBeforeSkew).Format(TimeFormat))
	conditions.CreateAttr("NotOnOrAfter", now.Add(ConditionsTTL).Format(TimeFormat))

	restriction := conditions.CreateElement("saml:AudienceRestriction")
	audience := restriction.CreateElement("saml:Audience")
	audience.SetText(sp.EntityID)

	return conditions
}

func (b *AssertionBuilder) buildAuthnStatement(now time.Time) *etree.Element {
	statement := etree.NewElement("saml:AuthnStatement")
	statement.CreateAttr("AuthnInstant", now.Format(TimeFormat))
	statement.CreateAttr("SessionIndex", NewID())

	context := statement.CreateElement("saml:AuthnContext")
	classRef := context.CreateElement("saml:AuthnContextClassRef")
	classRef.SetText(AuthnContextPasswordProtectedTransport)

	return statement
}

// buildAttributeStatement emits one Attribute per contract entry, in
// contract order. Multi-valued fields become multiple AttributeValue
// children under one Attribute. Contract entries whose source field is
// absent on the principal are logged and skipped; no attribute is ever
// emitted with an empty value. Returns nil when nothing is emitted.
func (b *AssertionBuilder) buildAttributeStatement(principal *domain.Principal, sp *domain.TrustedSP) *etree.Element {
	statement := etree.NewElement("saml:AttributeStatement")
	emitted := 0

	for _, mapping := range sp.AttributeContract {
		values := principal.Values(mapping.SourceField)
		nonEmpty := values[:0:0]
		for _, v := range values {
			if v != "" {
				nonEmpty = append(nonEmpty, v)
			}
		}
		if len(nonEmpty) == 0 {
			b.logger.Warn("skipping contract claim, principal field missing",
				zap.String("claim", mapping.Claim),
				zap.String("source_field", mapping.SourceField),
				zap.String("sp_entity_id", sp.EntityID),
			)
			continue
		}

		attribute := statement.CreateElement("saml:Attribute")
		attribute.CreateAttr("Name", mapping.Claim)
		attribute.CreateAttr("NameFormat", AttributeNameFormatBasic)
		for _, v := range nonEmpty {
			value := attribute.CreateElement("saml:AttributeValue")
			value.SetText(v)
		}
		emitted++
	}

	if emitted == 0 {
		return nil
	}
	return statement
}
