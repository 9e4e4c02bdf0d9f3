package storeapi

import (
	"context"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/gearstore/pkg/errors"
)

// Tokens is the credential pair issued on login.
type Tokens struct {
	Access  string `json:"access" validate:"required"`
	Refresh string `json:"refresh"`
}

// Profile is the authenticated shopper's account view.
type Profile struct {
	User          string   `json:"user"`
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	Email         string   `json:"email"`
	FavoriteTeams []string `json:"favorite_teams"`
	GearPoints    int      `json:"gear_points" validate:"gte=0"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, username, password string) (*Tokens, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}
	var tokens Tokens
	body := loginRequest{Username: strings.TrimSpace(username), Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/users/login/", nil, body, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Register creates an account. Field-level rejections come back as VALIDATION
// errors whose details map field to message.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	body := registerRequest{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	return c.do(ctx, http.MethodPost, "/api/users/register/", nil, body, nil)
}

// Profile fetches the profile for the bearer token in the token source.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, "/api/users/profile/", nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
