// Package auth defines the credential backend capability and the
// backends shipped with the server. The rest of the system only
// depends on the Authenticator interface, never on a concrete backend.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAuthenticationFailure is the only error a caller sees for any
// verification failure. Unknown user, wrong password and ambiguous
// matches are deliberately indistinguishable so usernames cannot be
// enumerated.
var ErrAuthenticationFailure = errors.New("authentication failure")

// ErrConnectionTimeout is returned when no backend connection could be
// acquired within the configured pool timeout. The backend never
// retries; retrying is the caller's call.
var ErrConnectionTimeout = errors.New("timed out waiting for a backend connection")

// Result is a backend's output for a successfully verified subject.
type Result struct {
	Subject        string          `json:"subject"`
	PrivateClaims  map[string]any  `json:"private_claims,omitempty"`
	RefreshPayload json.RawMessage `json:"refresh_payload,omitempty"`
}

// Authenticator is the capability every credential backend implements.
type Authenticator interface {
	// Authenticate verifies the supplied credentials. When
	// includeRefreshPayload is set, the result carries an opaque
	// payload permitting later re-authentication without a password.
	Authenticate(ctx context.Context, username, password string, includeRefreshPayload bool) (*Result, error)

	// AuthenticateRefreshToken reconstructs a subject from a payload
	// previously produced by this backend.
	AuthenticateRefreshToken(ctx context.Context, payload json.RawMessage) (*Result, error)
}

// refreshPayload is the envelope both built-in backends use for their
// refresh payloads. Only the subject is embedded; the backend re-checks
// it on renewal.
type refreshPayload struct {
	User string `json:"user"`
}

func marshalRefreshPayload(username string) (json.RawMessage, error) {
	payload, err := json.Marshal(refreshPayload{User: username})
	if err != nil {
		return nil, fmt.Errorf("serializing refresh payload: %w", err)
	}
	return payload, nil
}

// unmarshalRefreshPayload extracts the subject. A malformed payload is
// an authentication failure, not a server error.
func unmarshalRefreshPayload(raw json.RawMessage) (string, error) {
	var payload refreshPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", ErrAuthenticationFailure
	}
	if payload.User == "" {
		return "", ErrAuthenticationFailure
	}
	return payload.User, nil
}
