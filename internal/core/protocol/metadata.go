package protocol

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"time"

	"github.com/beevik/etree"
	"github.com/crewjam/saml"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// MetadataValidity is how far ahead the published metadata's validUntil
// is set.
const MetadataValidity = 48 * time.Hour

// MetadataPublisher builds and signs the IdP's own metadata document.
type MetadataPublisher struct {
	entityID    string
	ssoURL      string
	certificate *x509.Certificate
	signer      ports.Signer
	clock       ports.Clock
}

// NewMetadataPublisher creates a publisher for the IdP described by
// entityID, advertising ssoURL and the signing certificate.
func NewMetadataPublisher(entityID, ssoURL string, certificate *x509.Certificate, signer ports.Signer, clock ports.Clock) *MetadataPublisher {
	if clock == nil {
		clock = ports.RealClock{}
	}
	return &MetadataPublisher{
		entityID:    entityID,
		ssoURL:      ssoURL,
		certificate: certificate,
		signer:      signer,
		clock:       clock,
	}
}

// Publish builds the EntityDescriptor, signs it against its own ID, and
// returns the final document bytes.
func (p *MetadataPublisher) Publish() (*domain.SignedDocument, error) {
	id := NewID()
	descriptor := p.buildEntityDescriptor(id)

	raw, err := xml.Marshal(descriptor)
	if err != nil {
		return nil, domain.ServiceError("Metadata generation failed", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, domain.ServiceError("Metadata generation failed", err)
	}
	root := doc.Root()
	if root.SelectAttrValue("ID", "") == "" {
		root.CreateAttr("ID", id)
	}

	return p.signer.SignElement(root)
}

// buildEntityDescriptor assembles the metadata structure: one
// IDPSSODescriptor with the emailAddress NameID format, a single SSO
// endpoint on the redirect binding, and the signing certificate as a
// single-line base64 key descriptor.
func (p *MetadataPublisher) buildEntityDescriptor(id string) *saml.EntityDescriptor {
	certData := base64.StdEncoding.EncodeToString(p.certificate.Raw)

	return &saml.EntityDescriptor{
		EntityID:   p.entityID,
		ID:         id,
		ValidUntil: p.clock.Now().UTC().Add(MetadataValidity),
		IDPSSODescriptors: []saml.IDPSSODescriptor{{
			SSODescriptor: saml.SSODescriptor{
				RoleDescriptor: saml.RoleDescriptor{
					ProtocolSupportEnumeration: NamespaceProtocol,
					KeyDescriptors: []saml.KeyDescriptor{{
						Use: "signing",
						KeyInfo: saml.KeyInfo{
							X509Data: saml.X509Data{
								X509Certificates: []saml.X509Certificate{{Data: certData}},
							},
						},
					}},
				},
				NameIDFormats: []saml.NameIDFormat{saml.EmailAddressNameIDFormat},
			},
			SingleSignOnServices: []saml.Endpoint{{
				Binding:  saml.HTTPRedirectBinding,
				Location: p.ssoURL,
			}},
		}},
	}
}
