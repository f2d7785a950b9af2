package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keygate.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
issuer: https://www.acme.com
allowed_origins:
  origins:
    - https://www.example.com
    - http://127.0.0.1:8000
audience:
  - https://www.example.com
  - https://www.foobar.com
signature_algorithm: HS512
secret:
  type: hmac
  key: supersecret
expiry_duration: 86400
authenticator:
  type: sqlite
  path: users.db
`))
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}

	want := &Config{
		Issuer: "https://www.acme.com",
		AllowedOrigins: AllowedOrigins{
			Origins: []string{"https://www.example.com", "http://127.0.0.1:8000"},
		},
		Audience:           Audience{"https://www.example.com", "https://www.foobar.com"},
		SignatureAlgorithm: "HS512",
		Secret:             Secret{Type: SecretHMAC, Key: "supersecret"},
		ExpirySeconds:      86400,
		Authenticator: AuthenticatorConfig{
			Type:   "sqlite",
			Config: map[string]any{"path": "users.db"},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ScalarAudienceAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
issuer: https://www.acme.com
audience: https://www.example.com
authenticator:
  type: static
`))
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}

	if diff := cmp.Diff(Audience{"https://www.example.com"}, cfg.Audience); diff != "" {
		t.Errorf("scalar audience mismatch (-want +got):\n%s", diff)
	}
	if cfg.ExpirySeconds != DefaultExpirySeconds {
		t.Errorf("ExpirySeconds = %d, want default %d", cfg.ExpirySeconds, DefaultExpirySeconds)
	}
	origins, err := cfg.AllowedOrigins.Build()
	if err != nil {
		t.Fatalf("Build(): %v", err)
	}
	if !origins.All() {
		t.Error("unset allowed_origins should default to the wildcard")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing issuer",
			body:    "authenticator:\n  type: static\n",
			wantErr: "issuer is required",
		},
		{
			name:    "relative issuer",
			body:    "issuer: acme\nauthenticator:\n  type: static\n",
			wantErr: "absolute URL",
		},
		{
			name: "all and origins are mutually exclusive",
			body: `
issuer: https://www.acme.com
allowed_origins:
  all: true
  origins: ["https://www.example.com"]
authenticator:
  type: static
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "unparsable origin",
			body: `
issuer: https://www.acme.com
allowed_origins:
  origins: ["not an origin"]
authenticator:
  type: static
`,
			wantErr: "allowed_origins",
		},
		{
			name: "hmac secret without key",
			body: `
issuer: https://www.acme.com
secret:
  type: hmac
authenticator:
  type: static
`,
			wantErr: "requires 'key'",
		},
		{
			name: "none secret with key material",
			body: `
issuer: https://www.acme.com
secret:
  key: why
authenticator:
  type: static
`,
			wantErr: "must not carry key material",
		},
		{
			name: "negative expiry",
			body: `
issuer: https://www.acme.com
expiry_duration: -5
authenticator:
  type: static
`,
			wantErr: "must be positive",
		},
		{
			name:    "missing authenticator",
			body:    "issuer: https://www.acme.com\n",
			wantErr: "authenticator type is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestSecret_Validate(t *testing.T) {
	tests := []struct {
		name    string
		secret  Secret
		wantErr bool
	}{
		{name: "zero value", secret: Secret{}},
		{name: "explicit none", secret: Secret{Type: SecretNone}},
		{name: "hmac with key", secret: Secret{Type: SecretHMAC, Key: "k"}},
		{name: "rsa with both paths", secret: Secret{Type: SecretRSA, RSAPrivatePath: "p.pem", RSAPublicPath: "u.pem"}},
		{name: "rsa missing public", secret: Secret{Type: SecretRSA, RSAPrivatePath: "p.pem"}, wantErr: true},
		{name: "unknown type", secret: Secret{Type: "ed25519"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.secret.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
