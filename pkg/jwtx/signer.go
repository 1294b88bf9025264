package jwtx

import (
	"crypto"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aussiebroadwan/skygate/pkg/cryptox"
)

// Supported signing algorithms.
const (
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
	AlgorithmEdDSA = "EdDSA"
)

// Signer signs claims with one private key identified by kid.
type Signer struct {
	kid    string
	method jwt.SigningMethod
	key    crypto.Signer
	jwk    JWK
}

// NewSigner loads a PEM private key for alg. The key type must match the
// algorithm.
func NewSigner(kid, alg string, pemKey []byte) (*Signer, error) {
	method, err := signingMethod(alg)
	if err != nil {
		return nil, err
	}

	parsed, err := cryptox.ParseSigningKey(pemKey)
	if err != nil {
		return nil, fmt.Errorf("jwtx: %w", err)
	}
	key, ok := parsed.(crypto.Signer)
	if !ok || !keyMatches(alg, key.Public()) {
		return nil, fmt.Errorf("jwtx: %T is not a %s key", parsed, alg)
	}

	jwk, err := NewJWK(kid, alg, key.Public())
	if err != nil {
		return nil, err
	}
	return &Signer{kid: kid, method: method, key: key, jwk: jwk}, nil
}

// GenerateSigner creates a signer around a freshly generated key and returns
// the PEM alongside it so callers can persist it.
func GenerateSigner(kid, alg string, rsaBits int) (*Signer, []byte, error) {
	if alg == AlgorithmRS256 && rsaBits == 0 {
		rsaBits = 4096
	}
	pemKey, err := cryptox.GenerateSigningKey(alg, rsaBits)
	if err != nil {
		return nil, nil, err
	}
	s, err := NewSigner(kid, alg, pemKey)
	if err != nil {
		return nil, nil, err
	}
	return s, pemKey, nil
}

func (s *Signer) KID() string    { return s.kid }
func (s *Signer) Alg() string    { return s.method.Alg() }
func (s *Signer) PublicJWK() JWK { return s.jwk }

// Sign serialises claims as a compact JWS with the kid header set.
func (s *Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(s.method, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func signingMethod(alg string) (jwt.SigningMethod, error) {
	switch alg {
	case AlgorithmEdDSA:
		return jwt.SigningMethodEdDSA, nil
	case AlgorithmES256:
		return jwt.SigningMethodES256, nil
	case AlgorithmRS256:
		return jwt.SigningMethodRS256, nil
	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: RS256, ES256, EdDSA)", alg)
	}
}
