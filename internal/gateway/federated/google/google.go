package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"profilegate/internal/gateway/federated"
	"profilegate/internal/platform/config"
)

const providerName = "google"

// Verifier validates Google ID tokens. Mobile clients obtain the token from
// the Google Sign-In SDK and hand it to the gateway; web clients can use the
// authorization-code flow via ExchangeCode.
type Verifier struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

func New(ctx context.Context, cfg config.GoogleConfig) (*Verifier, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("google oauth config missing client id")
	}

	oidcProvider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("init google oidc provider: %w", err)
	}

	verifier := oidcProvider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     oidcProvider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &Verifier{oauthConfig: oauthCfg, verifier: verifier}, nil
}

// Name returns the provider identifier.
func (v *Verifier) Name() string { return providerName }

// Verify checks a Google ID token and extracts the normalized claims.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (federated.Claims, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return federated.Claims{}, fmt.Errorf("google id_token verification failed: %w", err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return federated.Claims{}, fmt.Errorf("google id_token claims parse failed: %w", err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return federated.Claims{}, errors.New("google id_token missing required claims")
	}

	return federated.Claims{
		Provider:      providerName,
		Subject:       claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// ExchangeCode trades an authorization code for an ID token and verifies it.
func (v *Verifier) ExchangeCode(ctx context.Context, code string) (federated.Claims, error) {
	token, err := v.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return federated.Claims{}, fmt.Errorf("google token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return federated.Claims{}, errors.New("google did not return id_token")
	}

	return v.Verify(ctx, rawIDToken)
}
