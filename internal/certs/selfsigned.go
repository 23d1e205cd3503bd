// Package certs generates TLS material for load balancer SSL termination.
package certs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"
)

// DefaultValidity is how long generated certificates stay valid.
const DefaultValidity = 10 * 365 * 24 * time.Hour

// Pair is a PEM-encoded certificate and its private key.
type Pair struct {
	CertificatePEM string
	PrivateKeyPEM  string
}

// SelfSigned returns an RSA-2048 certificate for fqdn signed by its own key.
// validity <= 0 uses DefaultValidity.
func SelfSigned(fqdn string, validity time.Duration) (Pair, error) {
	if validity <= 0 {
		validity = DefaultValidity
	}

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return Pair{}, fmt.Errorf("failed to generate serial: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: fqdn},
		DNSNames:     []string{fqdn},
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.Add(validity),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to create certificate: %w", err)
	}

	return Pair{
		CertificatePEM: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
		PrivateKeyPEM:  string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})),
	}, nil
}
