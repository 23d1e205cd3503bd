package certs

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"
)

func TestSelfSigned(t *testing.T) {
	pair, err := SelfSigned("www.example.com", 0)
	if err != nil {
		t.Fatalf("SelfSigned() error = %v", err)
	}

	if _, err := tls.X509KeyPair([]byte(pair.CertificatePEM), []byte(pair.PrivateKeyPEM)); err != nil {
		t.Fatalf("certificate and key do not match: %v", err)
	}

	block, _ := pem.Decode([]byte(pair.CertificatePEM))
	if block == nil {
		t.Fatal("no PEM block in certificate")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}

	if cert.Subject.CommonName != "www.example.com" {
		t.Errorf("CommonName = %q, want %q", cert.Subject.CommonName, "www.example.com")
	}
	if err := cert.VerifyHostname("www.example.com"); err != nil {
		t.Errorf("VerifyHostname() error = %v", err)
	}
	if got := cert.NotAfter.Sub(time.Now()); got < 9*365*24*time.Hour {
		t.Errorf("validity = %v, want about ten years", got)
	}
}

func TestSelfSigned_CustomValidity(t *testing.T) {
	pair, err := SelfSigned("a.example.com", 48*time.Hour)
	if err != nil {
		t.Fatalf("SelfSigned() error = %v", err)
	}
	block, _ := pem.Decode([]byte(pair.CertificatePEM))
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("ParseCertificate() error = %v", err)
	}
	if cert.NotAfter.After(time.Now().Add(49 * time.Hour)) {
		t.Errorf("NotAfter = %v, want within 48h", cert.NotAfter)
	}
}
