package api

import (
	"net/http"

	"github.com/darmiel/keygate/internal/api/middleware"
	"github.com/darmiel/keygate/internal/config"
	"github.com/darmiel/keygate/internal/cors"
	"github.com/darmiel/keygate/internal/service"
)

// The token routes only ever serve authenticated GETs from browsers,
// so the preflight allow-lists are fixed.
var (
	tokenAllowedMethods = []string{http.MethodGet}
	tokenAllowedHeaders = []string{"Authorization"}
)

type Server struct {
	tokenService *service.TokenService
	corsOptions  cors.Options
}

func NewServer(cfg *config.Config, tokenService *service.TokenService) (*Server, error) {
	allowedOrigins, err := cfg.AllowedOrigins.Build()
	if err != nil {
		return nil, err
	}

	return &Server{
		tokenService: tokenService,
		corsOptions: cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   tokenAllowedMethods,
			AllowedHeaders:   tokenAllowedHeaders,
			AllowCredentials: true,
		},
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// token issuance routes, CORS-gated
	mux.HandleFunc("OPTIONS "+TokenRoute, s.handleTokenPreflight)
	mux.HandleFunc("GET "+TokenRoute, s.handleTokenIssue)
	mux.HandleFunc("OPTIONS "+RefreshTokenRoute, s.handleTokenPreflight)
	mux.HandleFunc("GET "+RefreshTokenRoute, s.handleTokenRefresh)

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				mux)))
}
