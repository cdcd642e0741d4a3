package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// ErrNoIDToken is returned when the token endpoint response lacks an id_token.
var ErrNoIDToken = errors.New("token response has no id_token")

// OAuthConfig describes the issuer's OAuth2 client registration.
type OAuthConfig struct {
	AuthURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// OAuthClient runs the authorization code flow against the issuer.
type OAuthClient struct {
	cfg *oauth2.Config
}

// NewOAuthClient creates a client. Scopes default to an OpenID profile request.
func NewOAuthClient(cfg OAuthConfig) *OAuthClient {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile"}
	}

	return &OAuthClient{cfg: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}}
}

// AuthCodeURL returns the issuer URL the browser is sent to.
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.cfg.AuthCodeURL(state)
}

// Exchange trades an authorization code for the raw ID token.
// Pass a custom *http.Client via ctx under oauth2.HTTPClient to override transport.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}

	idToken, ok := tok.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", ErrNoIDToken
	}
	return idToken, nil
}

// IssuerEndpoints returns the conventional authorize and token URLs for a domain.
func IssuerEndpoints(domain string) (authURL, tokenURL string) {
	return "https://" + domain + "/authorize", "https://" + domain + "/oauth/token"
}
