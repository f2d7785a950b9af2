package auth

import (
	"testing"

	"github.com/darmiel/keygate/internal/config"
)

func TestBuild(t *testing.T) {
	t.Run("static", func(t *testing.T) {
		backend, err := Build(config.AuthenticatorConfig{
			Type:   TypeStatic,
			Config: map[string]any{"users": map[string]any{"aladdin": map[string]any{"password": "pw"}}},
		})
		if err != nil {
			t.Fatalf("Build(): %v", err)
		}
		if _, ok := backend.(*Static); !ok {
			t.Errorf("Build() = %T, want *Static", backend)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := Build(config.AuthenticatorConfig{Type: "ldap"}); err == nil {
			t.Error("Build() expected error for unknown type, got none")
		}
	})
}
