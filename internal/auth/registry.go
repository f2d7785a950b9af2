package auth

import (
	"fmt"

	"github.com/darmiel/keygate/internal/config"
)

// Backend type tags accepted in the configuration.
const (
	TypeSQLite = "sqlite"
	TypeStatic = "static"
)

// Build constructs the configured credential backend.
func Build(cfg config.AuthenticatorConfig) (Authenticator, error) {
	switch cfg.Type {
	case TypeSQLite:
		return NewSQLite(cfg)
	case TypeStatic:
		return NewStatic(cfg)
	default:
		return nil, fmt.Errorf("unknown authenticator type %q", cfg.Type)
	}
}
