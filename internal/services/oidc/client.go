package oidc

import (
	"context"

	"golang.org/x/oauth2"
)

// ClientConfig describes the OAuth2 client registered with the provider.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Endpoints    Endpoints
}

// Client wraps the authorization code flow used by the login endpoint.
type Client struct {
	config *oauth2.Config
}

func NewClient(cfg ClientConfig) *Client {
	return &Client{config: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.Endpoints.AuthorizationEndpoint,
			TokenURL: cfg.Endpoints.TokenEndpoint,
		},
	}}
}

// AuthCodeURL returns the provider login URL carrying state.
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode trades an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return c.config.Exchange(ctx, code)
}
