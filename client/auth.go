package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/chrisvdg/dioadmin/resource"
)

// ErrNotAdmin is returned when a valid account lacks the admin role.
// The credential is discarded before this is returned.
var ErrNotAdmin = errors.New("account is not an administrator")

// Credentials represents a login request
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile represents the authenticated account returned by the backend
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a bearer token and attaches it to
// the client
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	body, err := c.do(ctx, http.MethodPost, "/auth/login", nil, creds)
	if err != nil {
		return err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return errors.Wrap(err, "failed to decode login response")
	}
	if resp.AccessToken == "" {
		return errors.New("login response carried no access token")
	}

	c.SetToken(resp.AccessToken)
	return nil
}

// FetchProfile returns the profile of the authenticated account
func (c *Client) FetchProfile(ctx context.Context) (Profile, error) {
	var p Profile
	body, err := c.do(ctx, http.MethodGet, "/auth/profile", nil, nil)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, errors.Wrap(err, "failed to decode profile response")
	}
	return p, nil
}

// LoginAdmin logs in and verifies the account holds the admin role.
// Non-admin accounts are rejected locally and the token is discarded.
func (c *Client) LoginAdmin(ctx context.Context, creds Credentials) (Profile, error) {
	if err := c.Login(ctx, creds); err != nil {
		return Profile{}, err
	}

	profile, err := c.FetchProfile(ctx)
	if err != nil {
		c.ClearToken()
		return Profile{}, err
	}
	if profile.Role != resource.RoleAdmin {
		c.ClearToken()
		return Profile{}, errors.Wrapf(ErrNotAdmin, "role %q", profile.Role)
	}

	return profile, nil
}
