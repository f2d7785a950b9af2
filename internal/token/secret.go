package token

import (
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/darmiel/keygate/internal/config"
)

// Algorithm identifies a supported signature algorithm.
type Algorithm string

const (
	AlgNone  Algorithm = "none"
	AlgHS256 Algorithm = "HS256"
	AlgHS384 Algorithm = "HS384"
	AlgHS512 Algorithm = "HS512"
	AlgRS256 Algorithm = "RS256"
	AlgRS384 Algorithm = "RS384"
	AlgRS512 Algorithm = "RS512"
)

// ParseAlgorithm maps the configured name to an Algorithm. An empty
// name defaults to "none".
func ParseAlgorithm(name string) (Algorithm, error) {
	switch alg := Algorithm(name); alg {
	case "":
		return AlgNone, nil
	case AlgNone, AlgHS256, AlgHS384, AlgHS512, AlgRS256, AlgRS384, AlgRS512:
		return alg, nil
	default:
		return "", fmt.Errorf("unknown signature algorithm %q", name)
	}
}

func (a Algorithm) isHMAC() bool {
	return a == AlgHS256 || a == AlgHS384 || a == AlgHS512
}

func (a Algorithm) isRSA() bool {
	return a == AlgRS256 || a == AlgRS384 || a == AlgRS512
}

// Signer seals and opens claim sets with a resolved key pair. It is
// the only place key material lives after startup.
type Signer struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
}

// NewSigner resolves the configured secret variant against the
// algorithm family. Mismatched combinations (e.g. an HMAC algorithm
// with an RSA key pair) are configuration errors.
func NewSigner(alg Algorithm, secret config.Secret) (*Signer, error) {
	switch {
	case alg == AlgNone:
		if secret.Type != "" && secret.Type != config.SecretNone {
			return nil, fmt.Errorf("algorithm %q requires secret type %q, got %q", alg, config.SecretNone, secret.Type)
		}
		return &Signer{
			method:    jwt.SigningMethodNone,
			signKey:   jwt.UnsafeAllowNoneSignatureType,
			verifyKey: jwt.UnsafeAllowNoneSignatureType,
		}, nil

	case alg.isHMAC():
		if secret.Type != config.SecretHMAC {
			return nil, fmt.Errorf("algorithm %q requires secret type %q, got %q", alg, config.SecretHMAC, secret.Type)
		}
		key := []byte(secret.Key)
		return &Signer{
			method:    jwt.GetSigningMethod(string(alg)),
			signKey:   key,
			verifyKey: key,
		}, nil

	case alg.isRSA():
		if secret.Type != config.SecretRSA {
			return nil, fmt.Errorf("algorithm %q requires secret type %q, got %q", alg, config.SecretRSA, secret.Type)
		}
		privPEM, err := os.ReadFile(secret.RSAPrivatePath)
		if err != nil {
			return nil, fmt.Errorf("reading RSA private key: %w", err)
		}
		privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
		if err != nil {
			return nil, fmt.Errorf("parsing RSA private key: %w", err)
		}
		pubPEM, err := os.ReadFile(secret.RSAPublicPath)
		if err != nil {
			return nil, fmt.Errorf("reading RSA public key: %w", err)
		}
		pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
		if err != nil {
			return nil, fmt.Errorf("parsing RSA public key: %w", err)
		}
		return &Signer{
			method:    jwt.GetSigningMethod(string(alg)),
			signKey:   privKey,
			verifyKey: pubKey,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported signature algorithm %q", alg)
	}
}

// Sign seals the claims into a compact token string.
func (s *Signer) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(s.method, claims).SignedString(s.signKey)
}

// Parse opens a compact token string, enforcing that the token uses
// this signer's algorithm.
func (s *Signer) Parse(raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw,
		func(*jwt.Token) (any, error) { return s.verifyKey, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", tok.Claims)
	}
	return claims, nil
}
