package backend

import (
	"context"
	"net/http"
	"strings"

	pkgerrors "github.com/ekamauln/livo-mobile-order/pkg/errors"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges operator credentials for a token pair and profile.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	var result LoginResult
	if _, err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Username: username, Password: password}, &result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "login response missing access token")
	}
	return &result, nil
}
