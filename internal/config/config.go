// Package config loads and validates the server configuration. The
// configuration is read once at startup and treated as immutable for
// the process lifetime.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/darmiel/keygate/internal/cors"
)

// DefaultExpirySeconds is the token lifetime applied when
// expiry_duration is left unset: 24 hours.
const DefaultExpirySeconds = 86400

// Secret variant tags. The variants are explicit rather than inferred
// from the document shape, to keep the serialization unambiguous.
const (
	SecretNone = "none"
	SecretHMAC = "hmac"
	SecretRSA  = "rsa"
)

type Config struct {
	// Issuer of the tokens, usually the URI of this server. The issuer
	// also seeds the token id derivation.
	Issuer string `yaml:"issuer"`

	// AllowedOrigins for CORS requests. Tools like curl do not enforce
	// CORS; this only gates browser access.
	AllowedOrigins AllowedOrigins `yaml:"allowed_origins,omitempty"`

	// Audience the issued tokens are intended for. Accepts a single
	// string or a list.
	Audience Audience `yaml:"audience,omitempty"`

	// SignatureAlgorithm used to seal tokens. Defaults to "none".
	SignatureAlgorithm string `yaml:"signature_algorithm,omitempty"`

	// Secret material matching the signature algorithm family.
	Secret Secret `yaml:"secret,omitempty"`

	// ExpirySeconds is the token lifetime in seconds.
	ExpirySeconds int64 `yaml:"expiry_duration,omitempty"`

	// Authenticator selects and configures the credential backend.
	Authenticator AuthenticatorConfig `yaml:"authenticator"`
}

// Expiry returns the configured token lifetime.
func (c *Config) Expiry() time.Duration {
	return time.Duration(c.ExpirySeconds) * time.Second
}

// AllowedOrigins is the tagged wildcard-or-list origin configuration.
//
//	allowed_origins:
//	  all: true
//
//	allowed_origins:
//	  origins: ["https://foo.bar", "http://127.0.0.1:8000"]
//
// Left unset, all origins are allowed.
type AllowedOrigins struct {
	All     bool     `yaml:"all,omitempty"`
	Origins []string `yaml:"origins,omitempty"`
}

func (o AllowedOrigins) Validate() error {
	if o.All && len(o.Origins) > 0 {
		return fmt.Errorf("allowed_origins: 'all' and 'origins' are mutually exclusive")
	}
	for _, raw := range o.Origins {
		if _, err := cors.ParseOrigin(raw); err != nil {
			return fmt.Errorf("allowed_origins: %w", err)
		}
	}
	return nil
}

// Build converts the configuration into the policy engine's allow-list.
func (o AllowedOrigins) Build() (cors.AllowedOrigins, error) {
	if o.All || len(o.Origins) == 0 {
		return cors.AllowAll(), nil
	}
	origins := make([]cors.Origin, 0, len(o.Origins))
	for _, raw := range o.Origins {
		origin, err := cors.ParseOrigin(raw)
		if err != nil {
			return cors.AllowedOrigins{}, fmt.Errorf("allowed_origins: %w", err)
		}
		origins = append(origins, origin)
	}
	return cors.AllowSome(origins...), nil
}

// Audience unmarshals from either a single string or a sequence of
// strings.
type Audience []string

func (a *Audience) UnmarshalYAML(b []byte) error {
	var single string
	if err := yaml.Unmarshal(b, &single); err == nil {
		*a = Audience{single}
		return nil
	}
	var many []string
	if err := yaml.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("audience must be a string or a list of strings: %w", err)
	}
	*a = Audience(many)
	return nil
}

// Secret holds the signing material. The variant is selected by the
// explicit 'type' tag:
//
//	secret:
//	  type: hmac
//	  key: some_secret_string
//
//	secret:
//	  type: rsa
//	  rsa_private: private.pem
//	  rsa_public: public.pem
type Secret struct {
	Type           string `yaml:"type,omitempty"`
	Key            string `yaml:"key,omitempty"`
	RSAPrivatePath string `yaml:"rsa_private,omitempty"`
	RSAPublicPath  string `yaml:"rsa_public,omitempty"`
}

func (s Secret) Validate() error {
	switch s.Type {
	case "", SecretNone:
		if s.Key != "" || s.RSAPrivatePath != "" || s.RSAPublicPath != "" {
			return fmt.Errorf("secret: type %q must not carry key material", SecretNone)
		}
	case SecretHMAC:
		if s.Key == "" {
			return fmt.Errorf("secret: type %q requires 'key'", SecretHMAC)
		}
	case SecretRSA:
		if s.RSAPrivatePath == "" || s.RSAPublicPath == "" {
			return fmt.Errorf("secret: type %q requires 'rsa_private' and 'rsa_public'", SecretRSA)
		}
	default:
		return fmt.Errorf("secret: unknown type %q", s.Type)
	}
	return nil
}

// AuthenticatorConfig selects a credential backend by type; the
// remaining fields are captured as-is and decoded by the backend.
type AuthenticatorConfig struct {
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:",inline"`
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Issuer == "" {
		return fmt.Errorf("issuer is required")
	}
	if u, err := url.Parse(c.Issuer); err != nil || !u.IsAbs() {
		return fmt.Errorf("issuer must be an absolute URL, got %q", c.Issuer)
	}

	if err := c.AllowedOrigins.Validate(); err != nil {
		return err
	}
	if err := c.Secret.Validate(); err != nil {
		return err
	}

	if c.ExpirySeconds == 0 {
		c.ExpirySeconds = DefaultExpirySeconds
	}
	if c.ExpirySeconds < 0 {
		return fmt.Errorf("expiry_duration must be positive, got %d", c.ExpirySeconds)
	}

	if c.Authenticator.Type == "" {
		return fmt.Errorf("authenticator type is required")
	}

	return nil
}
