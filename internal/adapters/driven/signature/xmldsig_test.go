//go:build unit

package signature

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
)

// generateTestKeyPair creates a self-signed certificate and matching
// key for signing tests.
func generateTestKeyPair(t *testing.T) (*rsa.PrivateKey, *x509.Certificate) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "idp.test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return key, cert
}

// testElement builds a signable element with an ID and an Issuer child.
func testElement(id string) *etree.Element {
	el := etree.NewElement("samlp:Response")
	el.CreateAttr("xmlns:samlp", "urn:oasis:names:tc:SAML:2.0:protocol")
	el.CreateAttr("xmlns:saml", "urn:oasis:names:tc:SAML:2.0:assertion")
	el.CreateAttr("ID", id)
	el.CreateAttr("Version", "2.0")
	issuer := el.CreateElement("saml:Issuer")
	issuer.SetText("https://idp.test")
	status := el.CreateElement("samlp:Status")
	statusCode := status.CreateElement("samlp:StatusCode")
	statusCode.CreateAttr("Value", "urn:oasis:names:tc:SAML:2.0:status:Success")
	return el
}

// validateSignature verifies the signed bytes against the certificate.
func validateSignature(t *testing.T, data []byte, cert *x509.Certificate) {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		t.Fatalf("parse signed document: %v", err)
	}
	ctx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	})
	if _, err := ctx.Validate(doc.Root()); err != nil {
		t.Fatalf("signature validation failed: %v", err)
	}
}

// TestXMLDsigSigner_SignElement verifies the signature validates and
// references the element's ID.
func TestXMLDsigSigner_SignElement(t *testing.T) {
	key, cert := generateTestKeyPair(t)
	signer := NewXMLDsigSigner(key, cert)

	signed, err := signer.SignElement(testElement("_response1"))
	if err != nil {
		t.Fatalf("SignElement() returned error: %v", err)
	}
	if signed.ElementID != "_response1" {
		t.Errorf("ElementID = %q, want %q", signed.ElementID, "_response1")
	}
	validateSignature(t, signed.Data, cert)

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(signed.Data); err != nil {
		t.Fatalf("parse signed document: %v", err)
	}
	ref := doc.FindElement("//Reference")
	if ref == nil {
		t.Fatal("no Reference element in signature")
	}
	if got := ref.SelectAttrValue("URI", ""); got != "#_response1" {
		t.Errorf("Reference URI = %q, want %q", got, "#_response1")
	}
}

// TestXMLDsigSigner_SignaturePlacement verifies the ds:Signature lands
// directly after the Issuer child.
func TestXMLDsigSigner_SignaturePlacement(t *testing.T) {
	key, cert := generateTestKeyPair(t)
	signer := NewXMLDsigSigner(key, cert)

	signed, err := signer.SignElement(testElement("_response1"))
	if err != nil {
		t.Fatalf("SignElement() returned error: %v", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(signed.Data); err != nil {
		t.Fatalf("parse signed document: %v", err)
	}
	children := doc.Root().ChildElements()
	if len(children) < 2 {
		t.Fatalf("signed root has %d children, want at least 2", len(children))
	}
	if children[0].Tag != "Issuer" {
		t.Errorf("first child = %q, want Issuer", children[0].Tag)
	}
	if children[1].Tag != "Signature" {
		t.Errorf("second child = %q, want Signature", children[1].Tag)
	}
}

// TestXMLDsigSigner_SignaturePlacementNoIssuer verifies the signature
// becomes the first child when the element has no Issuer, as metadata
// documents require.
func TestXMLDsigSigner_SignaturePlacementNoIssuer(t *testing.T) {
	key, cert := generateTestKeyPair(t)
	signer := NewXMLDsigSigner(key, cert)

	el := etree.NewElement("md:EntityDescriptor")
	el.CreateAttr("xmlns:md", "urn:oasis:names:tc:SAML:2.0:metadata")
	el.CreateAttr("ID", "_metadata1")
	el.CreateAttr("entityID", "https://idp.test")
	el.CreateElement("md:IDPSSODescriptor")

	signed, err := signer.SignElement(el)
	if err != nil {
		t.Fatalf("SignElement() returned error: %v", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(signed.Data); err != nil {
		t.Fatalf("parse signed document: %v", err)
	}
	children := doc.Root().ChildElements()
	if len(children) < 2 {
		t.Fatalf("signed root has %d children, want at least 2", len(children))
	}
	if children[0].Tag != "Signature" {
		t.Errorf("first child = %q, want Signature", children[0].Tag)
	}
	if children[1].Tag != "IDPSSODescriptor" {
		t.Errorf("second child = %q, want IDPSSODescriptor", children[1].Tag)
	}
	validateSignature(t, signed.Data, cert)
}

// TestXMLDsigSigner_SignaturePlacementStillValidates verifies moving
// the signature does not break the digest.
func TestXMLDsigSigner_SignaturePlacementStillValidates(t *testing.T) {
	key, cert := generateTestKeyPair(t)
	signer := NewXMLDsigSigner(key, cert)

	signed, err := signer.SignElement(testElement("_response1"))
	if err != nil {
		t.Fatalf("SignElement() returned error: %v", err)
	}
	validateSignature(t, signed.Data, cert)
}

// TestXMLDsigSigner_TamperedDocumentFails verifies any byte change
// invalidates the signature.
func TestXMLDsigSigner_TamperedDocumentFails(t *testing.T) {
	key, cert := generateTestKeyPair(t)
	signer := NewXMLDsigSigner(key, cert)

	signed, err := signer.SignElement(testElement("_response1"))
	if err != nil {
		t.Fatalf("SignElement() returned error: %v", err)
	}

	tampered := []byte(string(signed.Data))
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(tampered); err != nil {
		t.Fatalf("parse signed document: %v", err)
	}
	doc.Root().FindElement("//Issuer").SetText("https://attacker.test")
	mutated, err := doc.WriteToBytes()
	if err != nil {
		t.Fatalf("serialize tampered document: %v", err)
	}

	tamperedDoc := etree.NewDocument()
	if err := tamperedDoc.ReadFromBytes(mutated); err != nil {
		t.Fatalf("parse tampered document: %v", err)
	}
	ctx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	})
	if _, err := ctx.Validate(tamperedDoc.Root()); err == nil {
		t.Fatal("tampered document passed signature validation")
	}
}

// TestXMLDsigSigner_MissingID verifies signing without an ID attribute
// fails.
func TestXMLDsigSigner_MissingID(t *testing.T) {
	key, cert := generateTestKeyPair(t)
	signer := NewXMLDsigSigner(key, cert)

	el := etree.NewElement("samlp:Response")
	el.CreateAttr("xmlns:samlp", "urn:oasis:names:tc:SAML:2.0:protocol")

	_, err := signer.SignElement(el)
	if !domain.IsCode(err, domain.ErrCodeSigningFailure) {
		t.Errorf("error code = %v, want %v", domain.CodeOf(err), domain.ErrCodeSigningFailure)
	}
}

// TestXMLDsigSigner_OriginalElementUntouched verifies signing does not
// mutate the caller's element.
func TestXMLDsigSigner_OriginalElementUntouched(t *testing.T) {
	key, cert := generateTestKeyPair(t)
	signer := NewXMLDsigSigner(key, cert)

	el := testElement("_response1")
	before := len(el.ChildElements())
	if _, err := signer.SignElement(el); err != nil {
		t.Fatalf("SignElement() returned error: %v", err)
	}
	if after := len(el.ChildElements()); after != before {
		t.Errorf("original element child count changed: %d -> %d", before, after)
	}
}
