package auth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/darmiel/keygate/internal/config"
)

// StaticConfig is the inline configuration block for the static
// backend: users defined directly in the server configuration.
type StaticConfig struct {
	Users map[string]StaticUser `mapstructure:"users"`
}

// StaticUser carries either a pre-salted digest (hex) or, for
// development setups, a plaintext password hashed at load time.
type StaticUser struct {
	Password string `mapstructure:"password"`
	Salt     string `mapstructure:"salt"`
	Hash     string `mapstructure:"hash"`
}

// Static verifies credentials against an in-memory user set. It shares
// the digest scheme and verification path with the sqlite backend.
type Static struct {
	users map[string]userRecord
}

var _ Authenticator = (*Static)(nil)

// NewStatic builds the backend from configuration.
func NewStatic(cfg config.AuthenticatorConfig) (*Static, error) {
	var conf StaticConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: &conf})
	if err != nil {
		return nil, fmt.Errorf("creating decoder for static authenticator: %w", err)
	}
	if err := decoder.Decode(cfg.Config); err != nil {
		return nil, fmt.Errorf("decoding config for static authenticator: %w", err)
	}

	users := make(map[string]userRecord, len(conf.Users))
	for username, u := range conf.Users {
		record := userRecord{Username: username}

		switch {
		case u.Password != "":
			salt, err := NewSalt()
			if err != nil {
				return nil, err
			}
			record.Salt = salt
			record.Hash = HashPassword(u.Password, salt)

		case u.Salt != "" && u.Hash != "":
			if record.Salt, err = hex.DecodeString(u.Salt); err != nil {
				return nil, fmt.Errorf("user %q: invalid salt hex: %w", username, err)
			}
			if record.Hash, err = hex.DecodeString(u.Hash); err != nil {
				return nil, fmt.Errorf("user %q: invalid hash hex: %w", username, err)
			}

		default:
			return nil, fmt.Errorf("user %q: requires either 'password' or 'salt'+'hash'", username)
		}

		users[username] = record
	}

	return &Static{users: users}, nil
}

func (s *Static) Authenticate(_ context.Context, username, password string, includeRefreshPayload bool) (*Result, error) {
	user, ok := s.users[username]
	if !ok {
		return nil, ErrAuthenticationFailure
	}
	if !VerifyPassword(password, user.Salt, user.Hash) {
		return nil, ErrAuthenticationFailure
	}
	return buildResult(user.Username, includeRefreshPayload)
}

func (s *Static) AuthenticateRefreshToken(_ context.Context, payload json.RawMessage) (*Result, error) {
	username, err := unmarshalRefreshPayload(payload)
	if err != nil {
		return nil, err
	}
	user, ok := s.users[username]
	if !ok {
		return nil, ErrAuthenticationFailure
	}
	return buildResult(user.Username, false)
}
