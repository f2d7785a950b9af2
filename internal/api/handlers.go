package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/keygate/internal/api/presenter"
	"github.com/darmiel/keygate/internal/buildinfo"
	"github.com/darmiel/keygate/internal/cors"
)

// handleHealth responds with a simple OK status to indicate the server is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleAbout responds with service information including version and commit hash.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, buildinfo.GetBuildInfo(), http.StatusOK)
}

// handleTokenPreflight processes the CORS preflight for the token
// routes: extract the declared origin/method/headers, evaluate them
// against the allow-lists and answer with headers only.
func (s *Server) handleTokenPreflight(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	origin, err := cors.OriginFromRequest(r)
	if err != nil {
		logger.Warn().Err(err).Msg("preflight rejected: bad origin")
		presenter.Error(w, r, err.Error(), cors.HTTPStatus(err))
		return
	}

	method, err := cors.RequestMethodFromRequest(r)
	if err != nil {
		logger.Warn().Err(err).Msg("preflight rejected: bad request method")
		presenter.Error(w, r, err.Error(), cors.HTTPStatus(err))
		return
	}

	// the requested-headers value is optional on preflights; an absent
	// header reads as the empty set
	headers, err := cors.RequestHeadersFromRequest(r)
	if err != nil && !errors.Is(err, cors.ErrMissingRequestHeaders) {
		logger.Warn().Err(err).Msg("preflight rejected: bad request headers")
		presenter.Error(w, r, err.Error(), cors.HTTPStatus(err))
		return
	}

	decoration, err := s.corsOptions.Preflight(origin, method, headers)
	if err != nil {
		logger.Warn().Err(err).Str("origin", origin.String()).Msg("preflight denied")
		presenter.Error(w, r, err.Error(), cors.HTTPStatus(err))
		return
	}

	decoration.WriteHeaders(w.Header())
	w.WriteHeader(http.StatusOK)
}

// handleTokenIssue processes token issuance requests: origin check,
// Basic credential verification, token issuance, CORS-wrapped JSON
// response. Any failure short-circuits the remaining stages.
func (s *Server) handleTokenIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	decoration, ok := s.decorate(w, r)
	if !ok {
		return
	}

	username, password, ok := r.BasicAuth()
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="keygate"`)
		presenter.Error(w, r, "authentication required", http.StatusUnauthorized)
		return
	}

	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("sub", username)
	})

	offline := r.URL.Query().Get("offline_token") == "true"

	tok, err := s.tokenService.Issue(ctx, username, password, offline)
	if err != nil {
		presenter.Err(w, r, err, "issuing token")
		return
	}

	logger.Info().Bool("offline", offline).Msg("token issued successfully")

	decoration.WriteHeaders(w.Header())
	presenter.JSON(w, r, tok, http.StatusOK)
}

// handleTokenRefresh re-authenticates a subject from a refresh token
// presented as a Bearer credential and issues a fresh token.
func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	decoration, ok := s.decorate(w, r)
	if !ok {
		return
	}

	authHeader := r.Header.Get("Authorization")
	refreshToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if refreshToken == "" {
		logger.Warn().Msg("missing or empty Authorization header")
		presenter.Error(w, r, "missing refresh token", http.StatusUnauthorized)
		return
	}

	tok, err := s.tokenService.Refresh(ctx, refreshToken)
	if err != nil {
		presenter.Err(w, r, err, "refreshing token")
		return
	}

	logger.Info().Msg("token refreshed successfully")

	decoration.WriteHeaders(w.Header())
	presenter.JSON(w, r, tok, http.StatusOK)
}

// decorate applies the origin rule for actual (non-preflight)
// responses. It writes the error response itself; callers bail out
// when ok is false.
func (s *Server) decorate(w http.ResponseWriter, r *http.Request) (*cors.Decoration, bool) {
	origin, err := cors.OriginFromRequest(r)
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("request rejected: bad origin")
		presenter.Error(w, r, err.Error(), cors.HTTPStatus(err))
		return nil, false
	}

	decoration, err := s.corsOptions.Decorate(origin)
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Str("origin", origin.String()).Msg("request denied: origin not allowed")
		presenter.Error(w, r, err.Error(), cors.HTTPStatus(err))
		return nil, false
	}

	return decoration, true
}
