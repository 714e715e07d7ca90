// Package signature signs XML documents and guards the IdP's key
// material. Signatures are enveloped, use exclusive canonical XML with
// SHA-256 digests and RSA-SHA256, and always reference the signed
// element's ID attribute so the digest is deterministic regardless of
// surrounding whitespace.
package signature

import (
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"errors"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

// XMLDsigSigner signs XML elements using goxmldsig with the IdP's key
// pair. Instances are immutable and safe for concurrent use; every call
// works on its own copy of the element tree.
type XMLDsigSigner struct {
	privateKey  *rsa.PrivateKey
	certificate *x509.Certificate
}

// NewXMLDsigSigner creates a signer with the given key pair.
func NewXMLDsigSigner(privateKey *rsa.PrivateKey, certificate *x509.Certificate) *XMLDsigSigner {
	return &XMLDsigSigner{
		privateKey:  privateKey,
		certificate: certificate,
	}
}

// SignElement signs the element and returns the final byte sequence.
// The element must carry a non-empty ID attribute; the signature's
// reference URI targets it explicitly. The ds:Signature lands directly
// after the Issuer child when one is present, or first otherwise,
// matching schema order for both protocol messages and metadata.
// The returned bytes must be transmitted unmodified.
func (s *XMLDsigSigner) SignElement(el *etree.Element) (*domain.SignedDocument, error) {
	id := el.SelectAttrValue("ID", "")
	if id == "" {
		return nil, domain.SigningError(errors.New("element has no ID attribute to reference"))
	}

	tlsCert := tls.Certificate{
		Certificate: [][]byte{s.certificate.Raw},
		PrivateKey:  s.privateKey,
	}
	signingContext := dsig.NewDefaultSigningContext(dsig.TLSCertKeyStore(tlsCert))
	signingContext.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")

	signed, err := signingContext.SignEnveloped(el)
	if err != nil {
		return nil, domain.SigningError(err)
	}

	placeSignature(signed)

	doc := etree.NewDocument()
	doc.SetRoot(signed)
	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, domain.SigningError(err)
	}

	return &domain.SignedDocument{Data: raw, ElementID: id}, nil
}

// placeSignature moves the appended ds:Signature into schema position:
// directly after the Issuer child when one is present (Response,
// Assertion), otherwise first (EntityDescriptor, which has no Issuer
// and expects the signature before its role descriptors). The digest is
// unaffected: the enveloped signature transform excludes the signature
// element wherever it sits.
func placeSignature(el *etree.Element) {
	children := el.ChildElements()
	if len(children) < 2 {
		return
	}
	sig := children[len(children)-1]
	if sig.Tag != "Signature" {
		return
	}
	for _, child := range children {
		if child.Tag == "Issuer" {
			el.RemoveChild(sig)
			el.InsertChildAt(child.Index()+1, sig)
			return
		}
	}
	el.RemoveChild(sig)
	el.InsertChildAt(children[0].Index(), sig)
}

var _ ports.Signer = (*XMLDsigSigner)(nil)
