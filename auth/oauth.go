package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OAuthManager talks to the Google OAuth token and authorization endpoints
// for the Gemini CLI client. It is stateless apart from the configured
// client credentials; token caching lives in CredentialStore.
type OAuthManager struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
}

// OAuthOption customizes an OAuthManager.
type OAuthOption func(*OAuthManager)

// WithClientCredentials overrides the default Gemini CLI OAuth client pair.
func WithClientCredentials(id, secret string) OAuthOption {
	return func(m *OAuthManager) {
		if id != "" {
			m.clientID = id
		}
		if secret != "" {
			m.clientSecret = secret
		}
	}
}

// WithTokenEndpoint overrides the token endpoint URL. Used by tests to
// point the manager at a local fake.
func WithTokenEndpoint(u string) OAuthOption {
	return func(m *OAuthManager) {
		if u != "" {
			m.tokenURL = u
		}
	}
}

// WithOAuthHTTPClient overrides the HTTP client used for token calls.
func WithOAuthHTTPClient(c *http.Client) OAuthOption {
	return func(m *OAuthManager) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// NewOAuthManager creates a manager using the official Gemini CLI client
// credentials unless overridden.
func NewOAuthManager(opts ...OAuthOption) *OAuthManager {
	m := &OAuthManager{
		clientID:     GeminiOAuthClientID,
		clientSecret: GeminiOAuthClientSecret,
		tokenURL:     GeminiOAuthTokenEndpoint,
		httpClient:   &http.Client{Timeout: OAuthHTTPTimeout},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RefreshToken exchanges a refresh token for a fresh access token.
func (m *OAuthManager) RefreshToken(ctx context.Context, refreshToken string) (*Credentials, error) {
	if refreshToken == "" {
		return nil, &TokenRefreshError{Message: "no refresh token available in credentials"}
	}

	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"scope":         {strings.Join(GeminiOAuthScopes, " ")},
	}

	creds, err := m.postTokenRequest(ctx, data)
	if err != nil {
		return nil, err
	}
	if creds.RefreshToken == "" {
		creds.RefreshToken = refreshToken
	}
	return creds, nil
}

// ExchangeCode exchanges an authorization code from the OAuth callback for
// a token set. codeVerifier is the PKCE verifier if one was used when
// generating the authorization URL.
func (m *OAuthManager) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Credentials, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"redirect_uri":  {GeminiOAuthRedirectURI},
	}
	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}

	return m.postTokenRequest(ctx, data)
}

// GenerateAuthURL builds the authorization URL for the interactive consent
// flow. state is the CSRF token; codeVerifier, when non-empty, adds an S256
// PKCE challenge.
func (m *OAuthManager) GenerateAuthURL(state, codeVerifier string) string {
	params := url.Values{
		"client_id":     {m.clientID},
		"redirect_uri":  {GeminiOAuthRedirectURI},
		"response_type": {"code"},
		"scope":         {strings.Join(GeminiOAuthScopes, " ")},
		"access_type":   {"offline"},
		"state":         {state},
	}
	if codeVerifier != "" {
		sum := sha256.Sum256([]byte(codeVerifier))
		params.Set("code_challenge", base64.RawURLEncoding.EncodeToString(sum[:]))
		params.Set("code_challenge_method", "S256")
	}
	return GeminiOAuthAuthEndpoint + "?" + params.Encode()
}

func (m *OAuthManager) postTokenRequest(ctx context.Context, data url.Values) (*Credentials, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, &TokenRefreshError{Message: fmt.Sprintf("network error during token request: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &TokenRefreshError{Message: fmt.Sprintf("failed to read token response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TokenRefreshError{
			Message:    truncate(string(body), 500),
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &TokenRefreshError{Message: "invalid JSON from token endpoint: " + truncate(string(body), 200)}
	}
	if tr.Error != "" {
		return nil, &TokenRefreshError{
			Message: tr.Error + ": " + tr.ErrorDescription,
			Body:    string(body),
		}
	}
	if tr.AccessToken == "" {
		return nil, &TokenRefreshError{Message: "no access token in response"}
	}

	expiresIn := tr.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return &Credentials{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tokenType,
		ExpiryDate:   time.Now().UnixMilli() + expiresIn*1000,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
