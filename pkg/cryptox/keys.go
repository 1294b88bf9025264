package cryptox

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// MinRSABits is the smallest RSA modulus GenerateSigningKey accepts.
const MinRSABits = 2048

// GenerateSigningKey creates a private key for the JOSE algorithm name
// (EdDSA, ES256 or RS256) and returns it PKCS8 PEM encoded. rsaBits is only
// read for RS256.
func GenerateSigningKey(alg string, rsaBits int) ([]byte, error) {
	var (
		key any
		err error
	)
	switch alg {
	case "EdDSA":
		_, key, err = ed25519.GenerateKey(rand.Reader)
	case "ES256":
		key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case "RS256":
		if rsaBits < MinRSABits {
			return nil, fmt.Errorf("cryptox: RSA key size must be at least %d bits", MinRSABits)
		}
		key, err = rsa.GenerateKey(rand.Reader, rsaBits)
	default:
		return nil, fmt.Errorf("cryptox: unsupported algorithm %q", alg)
	}
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate %s key: %w", alg, err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("cryptox: marshal PKCS8 key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// ParseSigningKey decodes a PEM private key produced by GenerateSigningKey.
// PKCS1 RSA keys are accepted too.
func ParseSigningKey(pemData []byte) (any, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("cryptox: no PEM block found")
	}
	switch block.Type {
	case "PRIVATE KEY":
		return x509.ParsePKCS8PrivateKey(block.Bytes)
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("cryptox: unexpected PEM block %q", block.Type)
	}
}
