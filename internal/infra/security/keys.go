package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrSigningKeyMissing      = errors.New("signing key not configured")
	ErrVerificationKeyMissing = errors.New("verification key not configured")
)

// KeyPair holds the asymmetric key material used for token signing and
// verification. Either side may be nil: a verify-only deployment carries
// just the public key, an issue-only one just the private key.
type KeyPair struct {
	Private crypto.PrivateKey
	Public  crypto.PublicKey
}

// KeyMaterial describes where the key pair comes from. Inline PEM takes
// precedence over file paths when both are set.
type KeyMaterial struct {
	PrivateKeyPEM  string
	PublicKeyPEM   string
	PrivateKeyFile string
	PublicKeyFile  string
}

// LoadKeyPair resolves the configured key material into parsed keys.
// Private keys may be PKCS#8 or PKCS#1/SEC1, public keys PKIX or PKCS#1.
func LoadKeyPair(material KeyMaterial) (*KeyPair, error) {
	pair := &KeyPair{}

	privatePEM, err := resolvePEM(material.PrivateKeyPEM, material.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}
	if privatePEM != "" {
		key, err := parsePrivateKey([]byte(privatePEM))
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		pair.Private = key
		pair.Public = publicKeyOf(key)
	}

	publicPEM, err := resolvePEM(material.PublicKeyPEM, material.PublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("load public key: %w", err)
	}
	if publicPEM != "" {
		key, err := parsePublicKey([]byte(publicPEM))
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
		pair.Public = key
	}

	if pair.Private == nil && pair.Public == nil {
		return nil, errors.New("no key material configured")
	}

	return pair, nil
}

func resolvePEM(inline, path string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(path) == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read key file %s: %w", path, err)
	}
	return string(data), nil
}

func parsePrivateKey(pemData []byte) (crypto.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		switch k := key.(type) {
		case *rsa.PrivateKey:
			return k, nil
		case *ecdsa.PrivateKey:
			return k, nil
		default:
			return nil, fmt.Errorf("unsupported private key type %T", key)
		}
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	return nil, errors.New("unrecognized private key format")
}

func parsePublicKey(pemData []byte) (crypto.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		switch k := key.(type) {
		case *rsa.PublicKey:
			return k, nil
		case *ecdsa.PublicKey:
			return k, nil
		default:
			return nil, fmt.Errorf("unsupported public key type %T", key)
		}
	}

	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}

	return nil, errors.New("unrecognized public key format")
}

func publicKeyOf(key crypto.PrivateKey) crypto.PublicKey {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return &k.PublicKey
	case *ecdsa.PrivateKey:
		return &k.PublicKey
	default:
		return nil
	}
}
