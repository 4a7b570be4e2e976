package security

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimsSigner abstracts the signature algorithm used for issued tokens.
// Implementations pair a jwt.SigningMethod with the matching key types so
// the issuer never touches raw key material.
type ClaimsSigner interface {
	// Sign produces a compact serialized token for the claims.
	Sign(claims jwt.Claims) (string, error)
	// Keyfunc returns the verification key for a parsed token.
	Keyfunc(token *jwt.Token) (any, error)
	// Method reports the expected signing method for parser validation.
	Method() jwt.SigningMethod
}

// RS256Signer signs and verifies tokens with an RSA key pair.
type RS256Signer struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// NewRS256Signer builds a signer from the supplied key pair. A nil private
// key yields a verify-only signer.
func NewRS256Signer(pair *KeyPair) (*RS256Signer, error) {
	signer := &RS256Signer{}

	if pair.Private != nil {
		key, ok := pair.Private.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("rs256: private key is %T, want *rsa.PrivateKey", pair.Private)
		}
		signer.private = key
	}
	if pair.Public != nil {
		key, ok := pair.Public.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("rs256: public key is %T, want *rsa.PublicKey", pair.Public)
		}
		signer.public = key
	}

	if signer.private == nil && signer.public == nil {
		return nil, ErrVerificationKeyMissing
	}

	return signer, nil
}

func (s *RS256Signer) Sign(claims jwt.Claims) (string, error) {
	if s.private == nil {
		return "", ErrSigningKeyMissing
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.private)
}

func (s *RS256Signer) Keyfunc(_ *jwt.Token) (any, error) {
	if s.public == nil {
		return nil, ErrVerificationKeyMissing
	}
	return s.public, nil
}

func (s *RS256Signer) Method() jwt.SigningMethod { return jwt.SigningMethodRS256 }

// ES256Signer signs and verifies tokens with an ECDSA P-256 key pair.
type ES256Signer struct {
	private *ecdsa.PrivateKey
	public  *ecdsa.PublicKey
}

// NewES256Signer builds a signer from the supplied key pair. A nil private
// key yields a verify-only signer.
func NewES256Signer(pair *KeyPair) (*ES256Signer, error) {
	signer := &ES256Signer{}

	if pair.Private != nil {
		key, ok := pair.Private.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("es256: private key is %T, want *ecdsa.PrivateKey", pair.Private)
		}
		signer.private = key
	}
	if pair.Public != nil {
		key, ok := pair.Public.(*ecdsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("es256: public key is %T, want *ecdsa.PublicKey", pair.Public)
		}
		signer.public = key
	}

	if signer.private == nil && signer.public == nil {
		return nil, ErrVerificationKeyMissing
	}

	return signer, nil
}

func (s *ES256Signer) Sign(claims jwt.Claims) (string, error) {
	if s.private == nil {
		return "", ErrSigningKeyMissing
	}
	return jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(s.private)
}

func (s *ES256Signer) Keyfunc(_ *jwt.Token) (any, error) {
	if s.public == nil {
		return nil, ErrVerificationKeyMissing
	}
	return s.public, nil
}

func (s *ES256Signer) Method() jwt.SigningMethod { return jwt.SigningMethodES256 }

// NewSigner selects a ClaimsSigner implementation by algorithm name.
func NewSigner(algorithm string, pair *KeyPair) (ClaimsSigner, error) {
	switch strings.ToUpper(strings.TrimSpace(algorithm)) {
	case "", "RS256":
		return NewRS256Signer(pair)
	case "ES256":
		return NewES256Signer(pair)
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
}
