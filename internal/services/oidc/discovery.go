package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Endpoints are the provider URLs the API needs.
type Endpoints struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// Discover reads the issuer's openid-configuration document. Missing
// endpoints fall back to the conventional issuer relative paths.
func Discover(ctx context.Context, httpClient *http.Client, issuer string) (*Endpoints, error) {
	issuer = strings.TrimRight(issuer, "/")
	if issuer == "" {
		return nil, fmt.Errorf("issuer is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}

	var ep Endpoints
	if err := json.NewDecoder(resp.Body).Decode(&ep); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	if ep.Issuer == "" {
		ep.Issuer = issuer
	}
	if ep.AuthorizationEndpoint == "" {
		ep.AuthorizationEndpoint = issuer + "/oauth2/authorize"
	}
	if ep.TokenEndpoint == "" {
		ep.TokenEndpoint = issuer + "/oauth2/token"
	}
	if ep.JWKSURI == "" {
		ep.JWKSURI = issuer + "/.well-known/jwks.json"
	}
	return &ep, nil
}
