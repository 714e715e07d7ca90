// Package request decodes transport-encoded SAML authentication
// requests and performs structural validation.
package request

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"io"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/protocol"
)

// Decoder decodes SAMLRequest values from the redirect binding:
// URL-safe base64, optionally raw-deflate compressed, containing an
// AuthnRequest document.
type Decoder struct {
	ssoEndpoint string
	logger      *zap.Logger
}

// NewDecoder creates a decoder validating Destination against the IdP's
// configured SSO endpoint.
func NewDecoder(ssoEndpoint string, logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{ssoEndpoint: ssoEndpoint, logger: logger}
}

// Decode restores base64 padding, decodes, inflates when compressed,
// parses the XML and validates the request structure. All failures
// surface as malformed_request errors with human-readable reasons; raw
// parser errors are logged server-side only.
func (d *Decoder) Decode(encoded string) (*domain.AuthnRequest, error) {
	if encoded == "" {
		return nil, domain.MalformedRequestError("Missing SAML authentication request")
	}

	if pad := len(encoded) % 4; pad != 0 {
		encoded += strings.Repeat("=", 4-pad)
	}
	decoded, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		d.logger.Debug("base64 decode failed", zap.Error(err))
		return nil, domain.MalformedRequestError("Request is not valid base64")
	}

	xmlContent := inflate(decoded)

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlContent); err != nil {
		d.logger.Debug("request parse failed", zap.Error(err))
		return nil, domain.MalformedRequestError("Request is not well-formed XML")
	}

	return d.validate(doc.Root())
}

// inflate attempts a raw-deflate decompression; on failure the decoded
// bytes are treated as uncompressed XML.
func inflate(data []byte) []byte {
	reader := flate.NewReader(bytes.NewReader(data))
	defer reader.Close()

	inflated, err := io.ReadAll(reader)
	if err != nil {
		return data
	}
	return inflated
}

// validate runs the structural checks in order; each is a hard failure.
func (d *Decoder) validate(root *etree.Element) (*domain.AuthnRequest, error) {
	if root == nil {
		return nil, domain.MalformedRequestError("Request has no root element")
	}
	if root.Tag != "AuthnRequest" || root.NamespaceURI() != protocol.NamespaceProtocol {
		return nil, domain.MalformedRequestError("Root element is not a SAML AuthnRequest")
	}

	for _, attr := range []string{"ID", "Version", "IssueInstant"} {
		if root.SelectAttrValue(attr, "") == "" {
			return nil, domain.MalformedRequestError("Missing required attribute: " + attr)
		}
	}

	issuer := findElement(root, "Issuer", protocol.NamespaceAssertion)
	if issuer == nil || strings.TrimSpace(issuer.Text()) == "" {
		return nil, domain.MalformedRequestError("Missing or empty Issuer")
	}

	destination := root.SelectAttrValue("Destination", "")
	if destination != "" && destination != d.ssoEndpoint {
		d.logger.Warn("destination mismatch",
			zap.String("expected", d.ssoEndpoint),
			zap.String("received", destination),
		)
		return nil, domain.MalformedRequestError("Invalid Destination")
	}

	acsURL := root.SelectAttrValue("AssertionConsumerServiceURL", "")
	if acsURL == "" {
		return nil, domain.MalformedRequestError("Missing AssertionConsumerServiceURL")
	}

	return &domain.AuthnRequest{
		ID:           root.SelectAttrValue("ID", ""),
		Issuer:       strings.TrimSpace(issuer.Text()),
		Destination:  destination,
		ACSURL:       acsURL,
		IssueInstant: root.SelectAttrValue("IssueInstant", ""),
	}, nil
}

// findElement returns the first descendant with the tag and namespace
// URI, or nil.
func findElement(el *etree.Element, tag, nsURI string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag && child.NamespaceURI() == nsURI {
			return child
		}
		if found := findElement(child, tag, nsURI); found != nil {
			return found
		}
	}
	return nil
}

// EncodeRedirect applies the inverse transport encoding: raw deflate
// then URL-safe base64. Used by tests and tooling that exercise the
// decoder round trip.
func EncodeRedirect(xmlContent []byte) (string, error) {
	var compressed bytes.Buffer
	writer, err := flate.NewWriter(&compressed, flate.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := writer.Write(xmlContent); err != nil {
		writer.Close()
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(compressed.Bytes()), nil
}
