package api

import (
	"context"
	"net/http"
)

// Credentials is the login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the login response body
type LoginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a token. It sends no Authorization header.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		route:  "/api/auth/login",
		path:   "/api/auth/login",
		body:   creds,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &Error{Kind: KindFailed, Op: "login", Method: http.MethodPost, Path: "/api/auth/login", Status: http.StatusOK, Message: "response carried no token"}
	}
	return &resp, nil
}
