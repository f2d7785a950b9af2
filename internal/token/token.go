// Package token assembles claim sets for authenticated subjects and
// seals them into signed, time-bounded bearer tokens.
package token

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/darmiel/keygate/internal/config"
)

// refreshPayloadClaim carries the authenticator's opaque refresh
// payload inside a refresh token.
const refreshPayloadClaim = "payload"

// Token is the issuance result returned to the client.
type Token struct {
	// Raw is the encoded claims string.
	Raw string `json:"token"`

	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`

	// IssuedAt is the issuance instant as a Unix timestamp.
	IssuedAt int64 `json:"issued_at"`

	// RefreshToken is only set when the client requested an offline
	// token and the backend supplied a refresh payload.
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Builder converts verified subjects into tokens using the immutable
// server configuration.
type Builder struct {
	issuer   string
	audience []string
	expiry   time.Duration
	signer   *Signer

	// now is swapped out in tests.
	now func() time.Time
}

// NewBuilder validates the token-related configuration and resolves
// the signing key material.
func NewBuilder(cfg *config.Config) (*Builder, error) {
	alg, err := ParseAlgorithm(cfg.SignatureAlgorithm)
	if err != nil {
		return nil, err
	}
	signer, err := NewSigner(alg, cfg.Secret)
	if err != nil {
		return nil, err
	}
	if cfg.Expiry() <= 0 {
		return nil, fmt.Errorf("expiry_duration must be positive, got %d", cfg.ExpirySeconds)
	}
	return &Builder{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		expiry:   cfg.Expiry(),
		signer:   signer,
		now:      time.Now,
	}, nil
}

// id derives the token id from the issuer only, as a URN-form UUIDv5
// over the URL namespace. Every token from the same issuer therefore
// shares the same jti; verifiers relying on this derivation exist, so
// it is kept as-is.
func (b *Builder) id() string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(b.issuer)).URN()
}

// Make builds the registered claims for subject, merges the backend's
// private claims and seals the result. Registered claim names always
// win over colliding private claims.
func (b *Builder) Make(subject string, privateClaims map[string]any) (*Token, error) {
	now := b.now().UTC()

	claims := make(jwt.MapClaims, len(privateClaims)+7)
	for k, v := range privateClaims {
		claims[k] = v
	}
	claims["iss"] = b.issuer
	claims["sub"] = subject
	switch len(b.audience) {
	case 0:
	case 1:
		claims["aud"] = b.audience[0]
	default:
		claims["aud"] = b.audience
	}
	claims["iat"] = jwt.NewNumericDate(now)
	claims["nbf"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(b.expiry))
	claims["jti"] = b.id()

	raw, err := b.signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &Token{
		Raw:       raw,
		ExpiresIn: int64(b.expiry / time.Second),
		IssuedAt:  now.Unix(),
	}, nil
}

// Decode opens a token issued by this builder and returns its claims.
func (b *Builder) Decode(raw string) (jwt.MapClaims, error) {
	return b.signer.Parse(raw)
}

// MakeRefreshToken seals the authenticator's opaque refresh payload
// into a signed token. The payload is only ever interpreted by the
// authenticator that produced it.
func (b *Builder) MakeRefreshToken(payload json.RawMessage) (string, error) {
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return "", fmt.Errorf("encoding refresh payload: %w", err)
	}

	now := b.now().UTC()
	claims := jwt.MapClaims{
		"iss":               b.issuer,
		"iat":               jwt.NewNumericDate(now),
		refreshPayloadClaim: decoded,
	}

	raw, err := b.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("signing refresh token: %w", err)
	}
	return raw, nil
}

// DecodeRefreshToken opens a refresh token and extracts the opaque
// payload for the authenticator.
func (b *Builder) DecodeRefreshToken(raw string) (json.RawMessage, error) {
	claims, err := b.signer.Parse(raw)
	if err != nil {
		return nil, err
	}
	value, ok := claims[refreshPayloadClaim]
	if !ok {
		return nil, fmt.Errorf("refresh token carries no payload")
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("decoding refresh payload: %w", err)
	}
	return payload, nil
}
