package signature

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/domain"
)

// KeyPair holds the IdP's validated signing material, loaded once per
// process lifetime and immutable thereafter.
type KeyPair struct {
	PrivateKey  *rsa.PrivateKey
	Certificate *x509.Certificate
}

// LoadKeyPair loads the certificate and private key and verifies they
// match. Any unreadable file, parse failure, or mismatch is returned as
// a startup-fatal error: the process must not serve requests with
// unusable key material.
func LoadKeyPair(certPath, keyPath string) (*KeyPair, error) {
	cert, err := LoadCertificate(certPath)
	if err != nil {
		return nil, err
	}
	key, err := LoadPrivateKey(keyPath)
	if err != nil {
		return nil, err
	}
	if err := VerifyKeyPair(cert, key); err != nil {
		return nil, err
	}
	return &KeyPair{PrivateKey: key, Certificate: cert}, nil
}

// LoadCertificate loads an X.509 certificate from a PEM file.
func LoadCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.CertificateUnreadableError(fmt.Sprintf("read certificate file %s", path), err)
	}

	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, domain.CertificateUnreadableError("parse certificate", err)
		}
		return cert, nil
	}
	return nil, domain.CertificateUnreadableError(fmt.Sprintf("no certificate found in %s", path), nil)
}

// LoadPrivateKey loads an RSA private key from a PEM file. PKCS8 is
// tried first, then PKCS1.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.CertificateUnreadableError(fmt.Sprintf("read key file %s", path), err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, domain.CertificateUnreadableError(fmt.Sprintf("no PEM block in %s", path), nil)
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, domain.CertificateUnreadableError("parse private key", err)
		}
		return rsaKey, nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, domain.CertificateUnreadableError("private key is not RSA", errors.New("unsupported key type"))
	}
	return rsaKey, nil
}

// VerifyKeyPair checks that the certificate's public key numbers equal
// the private key's derived public key numbers.
func VerifyKeyPair(cert *x509.Certificate, key *rsa.PrivateKey) error {
	certKey, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return domain.CertificateMismatchError("certificate public key is not RSA")
	}
	if certKey.N.Cmp(key.PublicKey.N) != 0 || certKey.E != key.PublicKey.E {
		return domain.CertificateMismatchError("certificate does not match private key")
	}
	return nil
}
