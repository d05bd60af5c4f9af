// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

// Package provider implements the external identity provider handshake.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/idgate-dev/idgate/internal/service"
)

// ErrNotConfigured is returned by Exchange when no client credentials
// were supplied.
var ErrNotConfigured = errors.New("google sign-in is not configured")

const (
	tokenEndpoint    = "https://oauth2.googleapis.com/token"
	userinfoEndpoint = "https://openidconnect.googleapis.com/v1/userinfo"
)

// GoogleClient exchanges an authorization code for a verified Google
// profile using the OAuth 2.0 authorization code flow.
type GoogleClient struct {
	clientID     string
	clientSecret string
	redirectURL  string
	httpClient   *http.Client
}

// NewGoogleClient creates a GoogleClient. Empty credentials produce a
// client whose Exchange always fails with ErrNotConfigured.
func NewGoogleClient(clientID, clientSecret, redirectURL string) *GoogleClient {
	return &GoogleClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Exchange turns an authorization code into a profile. The access token
// obtained from the token endpoint is used once, to fetch the userinfo
// document, and is never stored.
func (c *GoogleClient) Exchange(ctx context.Context, code string) (service.FederatedProfile, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return service.FederatedProfile{}, ErrNotConfigured
	}

	accessToken, err := c.fetchAccessToken(ctx, code)
	if err != nil {
		return service.FederatedProfile{}, err
	}
	return c.fetchProfile(ctx, accessToken)
}

func (c *GoogleClient) fetchAccessToken(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"redirect_uri":  {c.redirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchanging authorization code: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("token endpoint returned no access token")
	}
	return body.AccessToken, nil
}

func (c *GoogleClient) fetchProfile(ctx context.Context, accessToken string) (service.FederatedProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoEndpoint, nil)
	if err != nil {
		return service.FederatedProfile{}, fmt.Errorf("building userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return service.FederatedProfile{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return service.FederatedProfile{}, fmt.Errorf("userinfo endpoint returned %d", resp.StatusCode)
	}

	var info struct {
		Sub        string `json:"sub"`
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Picture    string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return service.FederatedProfile{}, fmt.Errorf("decoding userinfo: %w", err)
	}
	if info.Sub == "" || info.Email == "" {
		return service.FederatedProfile{}, errors.New("userinfo response is missing subject or email")
	}

	return service.FederatedProfile{
		GoogleID:  info.Sub,
		Email:     info.Email,
		FirstName: info.GivenName,
		LastName:  info.FamilyName,
		AvatarURL: info.Picture,
	}, nil
}
