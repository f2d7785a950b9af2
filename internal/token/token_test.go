package token

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/darmiel/keygate/internal/config"
)

func hmacConfig() *config.Config {
	return &config.Config{
		Issuer:             "https://www.acme.com",
		Audience:           config.Audience{"https://www.example.com"},
		SignatureAlgorithm: "HS256",
		Secret:             config.Secret{Type: config.SecretHMAC, Key: "secret"},
		ExpirySeconds:      3600,
	}
}

func newBuilder(t *testing.T, cfg *config.Config) *Builder {
	t.Helper()
	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder(): %v", err)
	}
	return b
}

func TestBuilder_Make(t *testing.T) {
	b := newBuilder(t, hmacConfig())
	// frozen to a whole second so the unix stamps compare exactly
	issued := time.Now().UTC().Truncate(time.Second)
	b.now = func() time.Time { return issued }

	tok, err := b.Make("aladdin", map[string]any{"company": "agrabah"})
	if err != nil {
		t.Fatalf("Make(): %v", err)
	}

	if tok.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", tok.ExpiresIn)
	}
	if tok.IssuedAt != issued.Unix() {
		t.Errorf("IssuedAt = %d, want %d", tok.IssuedAt, issued.Unix())
	}

	claims, err := b.Decode(tok.Raw)
	if err != nil {
		t.Fatalf("Decode(): %v", err)
	}

	if got := claims["iss"]; got != "https://www.acme.com" {
		t.Errorf("iss = %v, want issuer", got)
	}
	if got := claims["sub"]; got != "aladdin" {
		t.Errorf("sub = %v, want aladdin", got)
	}
	// single audience is encoded as a scalar
	if got := claims["aud"]; got != "https://www.example.com" {
		t.Errorf("aud = %v, want scalar audience", got)
	}
	if got := claims["company"]; got != "agrabah" {
		t.Errorf("private claim company = %v, want agrabah", got)
	}

	exp, _ := claims["exp"].(float64)
	iat, _ := claims["iat"].(float64)
	if int64(exp-iat) != 3600 {
		t.Errorf("exp-iat = %v, want 3600", exp-iat)
	}
}

func TestBuilder_Make_RegisteredClaimsWin(t *testing.T) {
	b := newBuilder(t, hmacConfig())

	tok, err := b.Make("aladdin", map[string]any{"sub": "jafar", "iss": "evil"})
	if err != nil {
		t.Fatalf("Make(): %v", err)
	}
	claims, err := b.Decode(tok.Raw)
	if err != nil {
		t.Fatalf("Decode(): %v", err)
	}
	if got := claims["sub"]; got != "aladdin" {
		t.Errorf("sub = %v, private claim must not override", got)
	}
	if got := claims["iss"]; got != "https://www.acme.com" {
		t.Errorf("iss = %v, private claim must not override", got)
	}
}

func TestBuilder_TokenIDIsStablePerIssuer(t *testing.T) {
	b := newBuilder(t, hmacConfig())

	first, err := b.Make("aladdin", nil)
	if err != nil {
		t.Fatalf("Make(): %v", err)
	}
	second, err := b.Make("jasmine", nil)
	if err != nil {
		t.Fatalf("Make(): %v", err)
	}

	firstClaims, _ := b.Decode(first.Raw)
	secondClaims, _ := b.Decode(second.Raw)

	jti, ok := firstClaims["jti"].(string)
	if !ok || !strings.HasPrefix(jti, "urn:uuid:") {
		t.Fatalf("jti = %v, want urn:uuid form", firstClaims["jti"])
	}
	if jti != secondClaims["jti"] {
		t.Errorf("jti differs per subject: %v vs %v", jti, secondClaims["jti"])
	}
}

func TestBuilder_NoneAlgorithm(t *testing.T) {
	cfg := hmacConfig()
	cfg.SignatureAlgorithm = ""
	cfg.Secret = config.Secret{}

	b := newBuilder(t, cfg)
	tok, err := b.Make("aladdin", nil)
	if err != nil {
		t.Fatalf("Make(): %v", err)
	}
	if !strings.HasSuffix(tok.Raw, ".") {
		t.Errorf("unsigned token should have an empty signature part: %q", tok.Raw)
	}
	if _, err := b.Decode(tok.Raw); err != nil {
		t.Errorf("Decode(): %v", err)
	}
}

func TestBuilder_RefreshTokenRoundTrip(t *testing.T) {
	b := newBuilder(t, hmacConfig())

	payload := json.RawMessage(`{"user":"aladdin"}`)
	raw, err := b.MakeRefreshToken(payload)
	if err != nil {
		t.Fatalf("MakeRefreshToken(): %v", err)
	}

	got, err := b.DecodeRefreshToken(raw)
	if err != nil {
		t.Fatalf("DecodeRefreshToken(): %v", err)
	}
	var decoded struct {
		User string `json:"user"`
	}
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if decoded.User != "aladdin" {
		t.Errorf("payload user = %q, want aladdin", decoded.User)
	}
}

func TestBuilder_DecodeRejectsForeignSignature(t *testing.T) {
	b := newBuilder(t, hmacConfig())

	other := hmacConfig()
	other.Secret.Key = "a completely different secret"
	foreign := newBuilder(t, other)

	tok, err := foreign.Make("aladdin", nil)
	if err != nil {
		t.Fatalf("Make(): %v", err)
	}
	if _, err := b.Decode(tok.Raw); err == nil {
		t.Error("Decode() accepted a token sealed with a different key")
	}
}

func TestNewBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{
			name:   "unknown algorithm",
			mutate: func(c *config.Config) { c.SignatureAlgorithm = "ES256" },
		},
		{
			name:   "hmac algorithm without hmac secret",
			mutate: func(c *config.Config) { c.Secret = config.Secret{} },
		},
		{
			name:   "negative expiry",
			mutate: func(c *config.Config) { c.ExpirySeconds = -1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := hmacConfig()
			tt.mutate(cfg)
			if _, err := NewBuilder(cfg); err == nil {
				t.Error("NewBuilder() expected error, got none")
			}
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		raw     string
		want    Algorithm
		wantErr bool
	}{
		{raw: "", want: AlgNone},
		{raw: "none", want: AlgNone},
		{raw: "HS256", want: AlgHS256},
		{raw: "RS512", want: AlgRS512},
		{raw: "hs256", wantErr: true},
		{raw: "PS256", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAlgorithm(%q) expected error, got none", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAlgorithm(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseAlgorithm(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
