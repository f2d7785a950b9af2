package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/keygate/internal/auth"
	"github.com/darmiel/keygate/internal/token"
)

// errInternal is the only message infrastructure and token failures
// surface to clients; the detail stays in the logs.
var errInternal = errors.New("internal server error")

// TokenService orchestrates credential verification and token
// issuance. All backend-specific errors are converted into the generic
// taxonomy here, before they can reach the HTTP surface.
type TokenService struct {
	builder       *token.Builder
	authenticator auth.Authenticator
}

func NewTokenService(builder *token.Builder, authenticator auth.Authenticator) *TokenService {
	return &TokenService{
		builder:       builder,
		authenticator: authenticator,
	}
}

// Issue verifies the credentials and issues a token for the subject.
// When offline is set and the backend supplied a refresh payload, a
// refresh token is attached.
func (s *TokenService) Issue(ctx context.Context, username, password string, offline bool) (*token.Token, error) {
	res, err := s.authenticator.Authenticate(ctx, username, password, offline)
	if err != nil {
		return nil, s.mapAuthError(ctx, err)
	}

	tok, err := s.makeToken(ctx, res)
	if err != nil {
		return nil, err
	}

	if offline && len(res.RefreshPayload) > 0 {
		refreshToken, err := s.builder.MakeRefreshToken(res.RefreshPayload)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("failed to seal refresh token")
			return nil, httpError(http.StatusInternalServerError, errInternal)
		}
		tok.RefreshToken = refreshToken
	}

	return tok, nil
}

// Refresh re-authenticates a subject from a previously issued refresh
// token and issues a fresh access token. No new refresh payload is
// produced.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*token.Token, error) {
	payload, err := s.builder.DecodeRefreshToken(refreshToken)
	if err != nil {
		// malformed or tampered refresh tokens read as a plain
		// authentication failure
		log.Ctx(ctx).Debug().Err(err).Msg("refresh token rejected")
		return nil, httpError(http.StatusUnauthorized, auth.ErrAuthenticationFailure)
	}

	res, err := s.authenticator.AuthenticateRefreshToken(ctx, payload)
	if err != nil {
		return nil, s.mapAuthError(ctx, err)
	}

	return s.makeToken(ctx, res)
}

func (s *TokenService) makeToken(ctx context.Context, res *auth.Result) (*token.Token, error) {
	tok, err := s.builder.Make(res.Subject, res.PrivateClaims)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to issue token")
		return nil, httpError(http.StatusInternalServerError, errInternal)
	}
	return tok, nil
}

func (s *TokenService) mapAuthError(ctx context.Context, err error) error {
	logger := log.Ctx(ctx)
	switch {
	case errors.Is(err, auth.ErrAuthenticationFailure):
		// which check failed is never surfaced
		return httpError(http.StatusUnauthorized, auth.ErrAuthenticationFailure)
	case errors.Is(err, auth.ErrConnectionTimeout):
		logger.Error().Err(err).Msg("credential backend timed out")
		return httpError(http.StatusInternalServerError, errInternal)
	default:
		logger.Error().Err(err).Msg("credential backend error")
		return httpError(http.StatusInternalServerError, errInternal)
	}
}
