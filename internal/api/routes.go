package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/icanhazkeygate"

	TokenRoute        = "/v1/token"
	RefreshTokenRoute = "/v1/token/refresh"
)
