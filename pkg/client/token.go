package client

import (
	"context"
	"net/http"

	"github.com/darmiel/keygate/internal/api"
	"github.com/darmiel/keygate/internal/token"
)

// Token requests a new token from the server using Basic credentials.
// When offline is true, the server also returns a refresh token.
func (c *Client) Token(
	ctx context.Context,
	username, password string,
	offline bool,
) (*token.Token, string, error) {
	ub := c.url().setPath(api.TokenRoute)
	if offline {
		ub = ub.addQueryParam("offline_token", "true")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", ub.build(), nil)
	if err != nil {
		return nil, "", err
	}
	req.SetBasicAuth(username, password)

	var result token.Token
	correlation, err := c.do(req, &result)
	if err != nil {
		return nil, correlation, err
	}
	return &result, correlation, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(
	ctx context.Context,
	refreshToken string,
) (*token.Token, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url().
		setPath(api.RefreshTokenRoute).
		build(), nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	var result token.Token
	correlation, err := c.do(req, &result)
	if err != nil {
		return nil, correlation, err
	}
	return &result, correlation, nil
}
